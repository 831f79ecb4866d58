package pkg

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/simp-lee/ruelucas/internal/domain"
)

const maxShownBody = 200

// UserMessage returns the French sentence shown to the operator for err.
// Technical detail only reaches the page for remote answers, whose body the
// operator may need to read.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case domain.IsValidation(err):
		return "Veuillez corriger les champs indiqués"
	case domain.IsUnsupported(err):
		return "Action non prise en charge par l'API"
	case domain.IsConflict(err):
		return "Un enregistrement est déjà en cours"
	case domain.IsNotFound(err):
		return "Élément introuvable"
	case domain.IsNetwork(err):
		return "Impossible de joindre l'API, veuillez réessayer"
	case domain.IsShape(err):
		return "Réponse inattendue de l'API"
	case domain.IsUpstream(err):
		return upstreamMessage(err)
	default:
		return "Une erreur est survenue, veuillez réessayer"
	}
}

func upstreamMessage(err error) string {
	var se *domain.StatusError
	if !errors.As(err, &se) {
		return "L'API a répondu par une erreur"
	}
	body := strings.TrimSpace(se.Body)
	if body == "" {
		return fmt.Sprintf("L'API a répondu par une erreur (%d)", se.Status)
	}
	if utf8.RuneCountInString(body) > maxShownBody {
		body = string([]rune(body)[:maxShownBody]) + "…"
	}
	return fmt.Sprintf("L'API a répondu par une erreur (%d) : %s", se.Status, body)
}
