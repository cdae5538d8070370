package storage

import (
	"path/filepath"
	"strings"
)

// SanitizeFilename reduce un nombre de archivo subido a una forma segura
// para usar como componente de ruta. Devuelve cadena vacia si no queda
// nada utilizable.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return ""
	}
	return out
}
