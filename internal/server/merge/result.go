package merge

// Status of one resolved path.
type Status string

const (
	StatusMerged     Status = "merged"
	StatusConflicted Status = "conflicted"
)

// Reasons attached to conflicted results.
const (
	ReasonFields       = "fields"
	ReasonBody         = "body"
	ReasonFieldsBody   = "fields+body"
	ReasonNoMergeBase  = "no merge base"
	ReasonDeleteModify = "delete-modify"
	ReasonNotMergeable = "not mergeable"
)

// Result of resolving one both-modified path. Resolved always holds the bytes
// to persist, whatever the status.
type Result struct {
	Path           string
	Status         Status
	FieldConflicts []string
	BodyConflicted bool
	Reason         string
	Resolved       []byte
}

// Conflicted reports whether anything about the path needs the author's eye.
func (r *Result) Conflicted() bool {
	return r.Status == StatusConflicted
}

func conflictReason(fieldConflicts []string, bodyConflicted bool) string {
	switch {
	case len(fieldConflicts) > 0 && bodyConflicted:
		return ReasonFieldsBody
	case len(fieldConflicts) > 0:
		return ReasonFields
	case bodyConflicted:
		return ReasonBody
	default:
		return ""
	}
}
