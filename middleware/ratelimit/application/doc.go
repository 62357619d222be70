// Package application contém os casos de uso (regras de aplicação) para o
// rate limit de janela fixa e o limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, identity, class) retorna uma Decision
// (allow/deny + cota restante + reset da janela).
package application
