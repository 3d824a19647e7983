package audit

import (
	"strconv"
	"strings"

	"github.com/campus-assoc/backend/internal/models"
	"github.com/campus-assoc/backend/internal/tracking"
)

// Cache is the cache-only view of the rows loaded in the current unit of work.
// Implementations must never query the store.
type Cache interface {
	Local(entityType string, key any) (tracking.Entity, error)
}

type nameRule func(c Cache, e tracking.Entity) (string, error)

// nameRules maps an entity type to the rule producing its display name.
var nameRules = map[string]nameRule{
	"Event":          scalar(func(e *models.Event) string { return e.Name }),
	"Song":           scalar(func(s *models.Song) string { return s.Title }),
	"Role":           scalar(func(r *models.Role) string { return r.Name }),
	"Report":         scalar(func(r *models.Report) string { return r.Title }),
	"FiscalYear":     scalar(func(f *models.FiscalYear) string { return f.Name }),
	"Transaction":    scalar(func(t *models.Transaction) string { return t.Description }),
	"User":           scalar(func(u *models.User) string { return u.Label() }),
	"RepertoireItem": repertoireName,
	"Attendance":     attendanceName,
}

func scalar[T tracking.Entity](get func(T) string) nameRule {
	return func(_ Cache, e tracking.Entity) (string, error) {
		v, ok := e.(T)
		if !ok {
			return "", nil
		}
		return get(v), nil
	}
}

func repertoireName(c Cache, e tracking.Entity) (string, error) {
	item, ok := e.(*models.RepertoireItem)
	if !ok {
		return "", nil
	}
	event, err := cached[*models.Event](c, "Event", item.EventID)
	if err != nil {
		return "", err
	}
	song, err := cached[*models.Song](c, "Song", item.SongID)
	if err != nil {
		return "", err
	}

	var parts []string
	if event != nil && event.Name != "" {
		parts = append(parts, event.Name)
	}
	if song != nil && song.Title != "" {
		parts = append(parts, song.Title)
	}
	return strings.Join(parts, " - "), nil
}

func attendanceName(c Cache, e tracking.Entity) (string, error) {
	a, ok := e.(*models.Attendance)
	if !ok {
		return "", nil
	}
	user, err := cached[*models.User](c, "User", a.UserID)
	if err != nil {
		return "", err
	}
	date := ""
	if !a.Date.IsZero() {
		date = a.Date.UTC().Format("2006-01-02")
	}
	if user == nil {
		return date, nil
	}
	if date == "" {
		return user.Label(), nil
	}
	return user.Label() + " - " + date, nil
}

// cached returns the typed row from the cache, or the zero value when it is not
// loaded.
func cached[T tracking.Entity](c Cache, entityType string, key any) (T, error) {
	var zero T
	e, err := c.Local(entityType, key)
	if err != nil || e == nil {
		return zero, err
	}
	v, ok := e.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}

// NameResolver derives a short display label for a changed row from data already
// loaded in the unit of work.
type NameResolver struct {
	cache Cache
}

func NewNameResolver(c Cache) *NameResolver {
	return &NameResolver{cache: c}
}

// Resolve returns nil when the type has no rule, the label is empty or the cache
// fails.
func (r *NameResolver) Resolve(e tracking.Entity) *string {
	rule, ok := nameRules[e.EntityType()]
	if !ok {
		return nil
	}
	label, err := rule(r.cache, e)
	if err != nil {
		return nil
	}
	return optional(strings.TrimSpace(label))
}

// UserLabel resolves an account label by id, falling back to the raw id.
func (r *NameResolver) UserLabel(userID string) string {
	u, err := cached[*models.User](r.cache, "User", userID)
	if err != nil || u == nil || u.Label() == "" {
		return userID
	}
	return u.Label()
}

// RoleLabel resolves a role name by id, falling back to the raw id.
func (r *NameResolver) RoleLabel(roleID int64) string {
	role, err := cached[*models.Role](r.cache, "Role", roleID)
	if err != nil || role == nil || role.Name == "" {
		return strconv.FormatInt(roleID, 10)
	}
	return role.Name
}
