package patient

import "strings"

const (
	latinLayout    = "qwertyuiop[]asdfghjkl;'zxcvbnm,./`QWERTYUIOP{}ASDFGHJKL:\"ZXCVBNM<>?~"
	cyrillicLayout = "йцукенгшщзхъфывапролджэячсмитьбю.ёЙЦУКЕНГШЩЗХЪФЫВАПРОЛДЖЭЯЧСМИТЬБЮ,Ё"
)

var layoutReplacer = func() *strings.Replacer {
	from, to := []rune(latinLayout), []rune(cyrillicLayout)
	pairs := make([]string, 0, 2*len(from))
	for i := range from {
		pairs = append(pairs, string(from[i]), string(to[i]))
	}
	return strings.NewReplacer(pairs...)
}()

// FromLatinLayout re-reads text typed with the Latin keyboard layout active
// as if the Cyrillic (ЙЦУКЕН) layout had been on: "ghfdf" becomes "права".
func FromLatinLayout(s string) string {
	return layoutReplacer.Replace(s)
}
