package infra

import "time"

// windowBounds devolve o início da janela fixa corrente (alinhada ao relógio
// de parede) e quanto falta até ela encerrar.
//
// Janela fixa mesmo: rajadas até a cota inteira no início da janela são uma
// propriedade aceita do algoritmo, não um bug. Não há suavização.
func windowBounds(now time.Time, window time.Duration) (start time.Time, reset time.Duration) {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}

	ts := now.Unix()
	start = time.Unix(ts-ts%secs, 0)

	reset = start.Add(window).Sub(now)
	if reset < 0 {
		reset = 0
	}
	return start, reset
}
