// Package httputil concentra a escrita de respostas e a leitura de corpos JSON.
//
// Handlers e middlewares passam por aqui em vez de usar o http.ResponseWriter
// direto: toda resposta é JSON e todo erro sai no mesmo envelope {"error": ...}.
package httputil
