// utilitário pequeno para formatação rápida/consistente de valores numéricos em headers/logs.
//    Evita puxar fmt (que é mais “pesado” e genérico) só para formatação simples
// 	  Padroniza o arredondamento do reset: sempre para cima, para o cliente
//        nunca tentar de novo cedo demais

package ratelimit

import (
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// resetSeconds converte a duração até o fim da janela em segundos inteiros,
// arredondando para cima (um reset de 100ms vira 1, nunca 0).
func resetSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
