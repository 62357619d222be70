// Package auth cuida da autenticação do gateway: registro de usuários em
// memória com hash bcrypt, emissão/validação de tokens de acesso (JWT HS256)
// e o middleware que injeta o Principal no contexto da requisição.
//
// Ordem nas rotas protegidas: auth roda ANTES do rate limit. Uma requisição
// com credencial inválida recebe 401 e não consome cota; uma válida passa a
// ser contada pela identidade do usuário ("user:<username>") em vez do IP.
package auth
