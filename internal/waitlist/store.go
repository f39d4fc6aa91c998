package waitlist

import "context"

// Store é a persistência das inscrições. Implementações devem garantir a
// unicidade do email e devolver ErrDuplicate na violação.
type Store interface {
	Ping(ctx context.Context) error
	// FindByEmail devolve ErrNotFound quando não existe.
	FindByEmail(ctx context.Context, email string) (Record, error)
	Create(ctx context.Context, rec Record) error
	// List devolve todos os registros, mais recentes primeiro.
	List(ctx context.Context) ([]Record, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Notifier recebe inscrições confirmadas (ex: email de boas-vindas).
type Notifier interface {
	Welcome(ctx context.Context, rec Record) error
}
