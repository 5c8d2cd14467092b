// Package application contém os casos de uso do gate de admissão.
//
// Ele depende apenas do pacote domain (e do logger) e não conhece net/http.
// Ex.: Pipeline.Process(ctx, ev, next) aplica controle de taxa, depois o gate
// de assinatura, e só então chama o handler.
package application
