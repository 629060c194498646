// Package catalog содержит неизменяемый каталог вале.
package catalog

import "github.com/mmeshcher/vales-contigo/internal/model"

var coupons = []model.Coupon{
	{ID: 0, Title: "Abrazo largo 🧀", Text: "Vale por un abrazo largo que arregla el día."},
	{ID: 1, Title: "Charla tranquila 🧀", Text: "Vale por una conversación sin prisas y sin móviles."},
	{ID: 2, Title: "Peli elegida por ti 🧀", Text: "Vale por elegir tú la peli… incluso si es un horror 😏."},
	{ID: 3, Title: "Masaje 🧀", Text: "Vale por un masaje de 10 minutos donde tú elijas."},
	{ID: 4, Title: "Paseo juntos 🧀", Text: "Vale por un paseo para desconectar del mundo."},
	{ID: 5, Title: "Merienda sorpresa 🧀", Text: "Vale por una merienda improvisada preparada por mí."},
	{ID: 6, Title: "Reinicio del día 🧀", Text: "Vale por borrar lo malo y seguir juntos."},
	{ID: 7, Title: "Mimos ilimitados 🧀", Text: "Vale por un rato de mimos sin límite de tiempo."},
	{ID: 8, Title: "Confesión pendiente 🧀", Text: "Vale por contarte algo bonito que aún no sabes."},
	{ID: 9, Title: "Cita especial 🧀", Text: "Vale por una cita sencilla pero muy tú y yo."},
}

// All возвращает копию каталога в фиксированном порядке.
func All() []model.Coupon {
	out := make([]model.Coupon, len(coupons))
	copy(out, coupons)
	return out
}

// Get возвращает вале по идентификатору.
func Get(id int) (model.Coupon, bool) {
	for _, c := range coupons {
		if c.ID == id {
			return c, true
		}
	}
	return model.Coupon{}, false
}

// Contains сообщает, есть ли вале с таким идентификатором.
func Contains(id int) bool {
	_, ok := Get(id)
	return ok
}

// Size возвращает количество вале в каталоге.
func Size() int {
	return len(coupons)
}
