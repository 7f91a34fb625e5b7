package model

import (
	"fmt"
	"strings"
)

// Classification tells which kind of owner a disk store was resolved from.
// It doubles as the scope token of a compaction request.
type Classification uint8

const (
	ClassificationAll Classification = iota
	ClassificationQueue
	ClassificationRegion
	ClassificationGateway
	ClassificationStore
	// ClassificationPdx is the legacy PDX type registry scope. It is accepted
	// only when explicitly enabled in config.
	ClassificationPdx
)

var classificationNames = [...]string{
	ClassificationAll:     "ALL",
	ClassificationQueue:   "QUEUE",
	ClassificationRegion:  "REGION",
	ClassificationGateway: "GATEWAY",
	ClassificationStore:   "STORE",
	ClassificationPdx:     "PDX",
}

func (c Classification) String() string {
	if int(c) < len(classificationNames) {
		return classificationNames[c]
	}
	return fmt.Sprintf("Classification(%d)", uint8(c))
}

// ParseClassification upper-cases the token and matches it against the known scopes.
func ParseClassification(token string) (Classification, error) {
	upper := strings.ToUpper(token)
	for i, name := range classificationNames {
		if name == upper {
			return Classification(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidScope, token)
}
