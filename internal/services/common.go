package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"recipebox/internal/apperror"
	"recipebox/internal/logging"
	"recipebox/internal/metrics"
	"recipebox/internal/models"
	"recipebox/internal/repositories"
	"recipebox/internal/store"
	"recipebox/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// EventPublisher publishes domain events. *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(event rabbitmq.Event) error
}

func storeOf(a store.Availability) (*store.Store, error) {
	s, err := a.Store()
	if err != nil {
		return nil, apperror.Unavailable("Database not available", err)
	}
	return s, nil
}

// validID reports whether id has the shape of a store identifier.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// translate maps a repository error to the API taxonomy.
func translate(err error, notFound string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperror.NotFound(notFound)
	case errors.Is(err, repositories.ErrDuplicate):
		return apperror.Conflict(err.Error())
	default:
		return apperror.Internal("Internal server error", err)
	}
}

// IsOwner reports whether principal is the owner recorded on a resource:
// the author of a recipe or the reviewer of a review.
func IsOwner(principal *models.Principal, ownerID string) bool {
	return principal != nil && principal.UserID != "" && principal.UserID == ownerID
}

func publish(p EventPublisher, event rabbitmq.Event) {
	if p == nil {
		return
	}
	err := p.Publish(event)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		logging.Warn().Err(err).Str("type", event.Type).Str("recipe_id", event.RecipeID).Msg("failed to publish event")
	}
	metrics.EventsPublished.WithLabelValues(event.Type, outcome).Inc()
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// validate runs struct validation and flattens failures to the first message.
func validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.InvalidInput("Validation failed")
	}
	return apperror.InvalidInput(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "max":
		msg = fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	r := []rune(msg)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// resolveUsers loads the public identity of every user in ids. Lookup
// failures are logged and yield an empty map.
func resolveUsers(ctx context.Context, s *store.Store, ids []string) map[string]*models.UserSummary {
	out := make(map[string]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out
	}
	users, err := s.Users.GetByIDs(ctx, dedupe(ids))
	if err != nil {
		logging.Warn().Err(err).Msg("failed to resolve user identities")
		return out
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
