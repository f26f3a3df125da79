package car

// Request is the open mutation payload shared by create, replace and patch.
// Every field is optional at the JSON level; which ones must be present or
// absent depends on the operation (see Service).
type Request struct {
	ID              *uint64 `json:"id"`
	Make            *string `json:"make"`
	Model           *string `json:"model"`
	ManufactureYear *int    `json:"manufactureYear"`
	VIN             *string `json:"vin"`
	OdometerKm      *int64  `json:"odometerKm"`
	Version         *int    `json:"version"`
}

const (
	msgMustBeNull    = "must be null"
	msgMustNotBeNull = "must not be null"
)

// shapeViolations checks field presence rules that only make sense on the
// request, before it is folded into an entity: server-assigned fields must be
// absent on create, the version must accompany updates, and immutable or
// replace-only fields must be absent where the operation forbids them.
//
// Version presence for patch is not checked here: an absent version can never
// equal the stored one, so the service reports it as a version conflict.
func (r Request) shapeViolations(g Group) []Violation {
	var out []Violation
	switch g {
	case GroupCreate:
		if r.ID != nil {
			out = append(out, Violation{Path: "id", Message: msgMustBeNull})
		}
		if r.Version != nil {
			out = append(out, Violation{Path: "version", Message: msgMustBeNull})
		}
	case GroupUpdate:
		if r.VIN != nil {
			out = append(out, Violation{Path: "vin", Message: msgMustBeNull})
		}
		if r.Version == nil {
			out = append(out, Violation{Path: "version", Message: msgMustNotBeNull})
		}
	case GroupPatch:
		if r.Make != nil {
			out = append(out, Violation{Path: "make", Message: msgMustBeNull})
		}
		if r.Model != nil {
			out = append(out, Violation{Path: "model", Message: msgMustBeNull})
		}
		if r.VIN != nil {
			out = append(out, Violation{Path: "vin", Message: msgMustBeNull})
		}
	}
	return out
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
