// pkg/lti-launch/launch/principal.go
package launch

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// IMS claim URIs carried in the Platform id_token.
const (
	ClaimRoles           = "https://purl.imsglobal.org/spec/lti/claim/roles"
	ClaimContext         = "https://purl.imsglobal.org/spec/lti/claim/context"
	ClaimCustom          = "https://purl.imsglobal.org/spec/lti/claim/custom"
	ClaimLis             = "https://purl.imsglobal.org/spec/lti/claim/lis"
	ClaimCanvasPlacement = "https://www.instructure.com/placement"
)

// Context is the LTI context (course) the launch originates from.
type Context struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// Lis carries legacy LIS identifiers when the Platform supplies them.
type Lis struct {
	PersonSourcedID         string `json:"person_sourcedid"`
	CourseOfferingSourcedID string `json:"course_offering_sourcedid"`
	CourseSectionSourcedID  string `json:"course_section_sourcedid"`
}

// Principal is the application-neutral identity reconstructed from a
// verified Platform id_token. It is built fresh per login and never
// persisted by this package.
type Principal struct {
	Email          string
	NameIdentifier string
	Name           string
	Context        Context
	// Roles holds the IMS role URIs in the order the Platform sent them.
	Roles           []string
	CustomClaims    json.RawMessage
	Lis             *Lis
	Locale          string
	CanvasPlacement string
}

// principalFromClaims maps verified id_token claims onto a Principal.
// The context claim must be present and well formed; its absence on an
// otherwise valid launch indicates a broken Platform registration.
func principalFromClaims(claims jwt.MapClaims) (Principal, error) {
	p := Principal{
		Email:           stringClaim(claims, "email"),
		NameIdentifier:  stringClaim(claims, "sub"),
		Name:            stringClaim(claims, "name"),
		Locale:          stringClaim(claims, "locale"),
		CanvasPlacement: stringClaim(claims, ClaimCanvasPlacement),
	}

	if err := decodeClaim(claims[ClaimContext], &p.Context); err != nil {
		return Principal{}, fmt.Errorf("context claim: %w", err)
	}

	if v, ok := claims[ClaimRoles]; ok {
		p.Roles = roleValues(v)
	}
	if v, ok := claims[ClaimCustom]; ok && v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			return Principal{}, fmt.Errorf("custom claim: %w", err)
		}
		p.CustomClaims = raw
	}
	if v, ok := claims[ClaimLis]; ok && v != nil {
		var lis Lis
		if err := decodeClaim(v, &lis); err != nil {
			return Principal{}, fmt.Errorf("lis claim: %w", err)
		}
		p.Lis = &lis
	}
	return p, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}

// decodeClaim re-marshals a decoded claim value into its structured form.
func decodeClaim(v any, dst any) error {
	if v == nil {
		return fmt.Errorf("claim missing")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func roleValues(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, it := range val {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case string:
		return []string{val}
	}
	return nil
}
