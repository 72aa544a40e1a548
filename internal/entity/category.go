package entity

type ModerationPolicy string

const (
	ModerationInherit ModerationPolicy = "inherit"
	ModerationAlways  ModerationPolicy = "always"
	ModerationNever   ModerationPolicy = "never"
)

type Sector struct {
	ID        string
	Name      string
	Moderated bool
}

type Category struct {
	ID         string
	SectorID   string
	Name       string
	Moderation ModerationPolicy
}

// Moderated resolves the effective moderation policy, falling back to the
// owning sector when the category inherits.
func (c *Category) Moderated(sector *Sector) bool {
	switch c.Moderation {
	case ModerationAlways:
		return true
	case ModerationNever:
		return false
	default:
		return sector != nil && sector.Moderated
	}
}
