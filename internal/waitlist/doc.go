// Package waitlist contém o domínio do serviço: o registro de inscrição,
// a validação da entrada e o caso de uso Submit/List.
//
// Não sabe nada de HTTP nem do banco concreto; depende apenas da interface
// Store (implementada em internal/store) e de um Notifier opcional.
package waitlist
