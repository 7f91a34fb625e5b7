package model

// UnresolvedSource is rendered in place of an empty source name.
const UnresolvedSource = "n/a"

// Target names one disk store to compact together with the owner it was resolved from.
// Values are immutable once built.
type Target struct {
	sourceName     string
	classification Classification
	diskStoreName  string
}

func NewTarget(sourceName string, classification Classification, diskStoreName string) Target {
	return Target{
		sourceName:     sourceName,
		classification: classification,
		diskStoreName:  diskStoreName,
	}
}

// SourceName is the region name, sender id, queue id or empty when no owner was found.
func (t Target) SourceName() string             { return t.sourceName }
func (t Target) Classification() Classification { return t.classification }
func (t Target) DiskStoreName() string          { return t.diskStoreName }

// Source returns SourceName or UnresolvedSource when it is empty.
func (t Target) Source() string {
	if t.sourceName == "" {
		return UnresolvedSource
	}
	return t.sourceName
}
