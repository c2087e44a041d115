package manifest

import "sort"

// Classification of one path after comparing the base, server and client
// manifests. Names take the server's seat: "local" is the server tree,
// "remote" is the client's working copy.
type Classification int

const (
	ClassUnchanged Classification = iota
	ClassNewUpload
	ClassNewDownload
	ClassDeleteLocal  // client deleted, server unchanged: the server copy goes
	ClassDeleteRemote // server deleted, client unchanged: the client copy goes
	ClassBothModified
)

func (c Classification) String() string {
	switch c {
	case ClassUnchanged:
		return "unchanged"
	case ClassNewUpload:
		return "new-upload"
	case ClassNewDownload:
		return "new-download"
	case ClassDeleteLocal:
		return "delete-local"
	case ClassDeleteRemote:
		return "delete-remote"
	case ClassBothModified:
		return "both-modified"
	default:
		return "unknown"
	}
}

// Plan groups the union of paths across three manifests by classification.
// All slices are sorted.
type Plan struct {
	Uploads       []string // client created or solely edited; client sends bytes
	Downloads     []string // server created or solely edited; client fetches
	LocalDeletes  []string // client deleted; server drops the path
	RemoteDeletes []string // server deleted; client drops its copy
	Conflicts     []string // modified on both sides; resolved server-side
	Unchanged     []string
}

// IsEmpty reports whether the plan requires no action from either side.
func (p *Plan) IsEmpty() bool {
	return len(p.Uploads) == 0 && len(p.Downloads) == 0 &&
		len(p.LocalDeletes) == 0 && len(p.RemoteDeletes) == 0 &&
		len(p.Conflicts) == 0
}

// BuildPlan classifies every path appearing in base, server or client. base
// is the manifest recorded at the last mutually acknowledged commit; passing
// nil means no common ancestor is known.
func BuildPlan(base, server, client Manifest) *Plan {
	union := make(map[string]struct{}, len(server)+len(client))
	for p := range base {
		union[p] = struct{}{}
	}
	for p := range server {
		union[p] = struct{}{}
	}
	for p := range client {
		union[p] = struct{}{}
	}

	plan := &Plan{}
	for p := range union {
		switch Classify(base[p], server[p], client[p]) {
		case ClassNewUpload:
			plan.Uploads = append(plan.Uploads, p)
		case ClassNewDownload:
			plan.Downloads = append(plan.Downloads, p)
		case ClassDeleteLocal:
			plan.LocalDeletes = append(plan.LocalDeletes, p)
		case ClassDeleteRemote:
			plan.RemoteDeletes = append(plan.RemoteDeletes, p)
		case ClassBothModified:
			plan.Conflicts = append(plan.Conflicts, p)
		default:
			plan.Unchanged = append(plan.Unchanged, p)
		}
	}

	sort.Strings(plan.Uploads)
	sort.Strings(plan.Downloads)
	sort.Strings(plan.LocalDeletes)
	sort.Strings(plan.RemoteDeletes)
	sort.Strings(plan.Conflicts)
	sort.Strings(plan.Unchanged)
	return plan
}

// Classify applies the sync decision table to one path. A nil entry means the
// path is absent from that manifest. Only content hashes weigh in; size and
// mtime never do.
//
// Deletion applies only when the surviving side still matches base. When the
// other side changed too, the path degenerates into a delete/modify case and
// classifies as both-modified for the merger to resolve.
func Classify(base, server, client *FileEntry) Classification {
	inBase, inServer, inClient := base != nil, server != nil, client != nil

	if !inBase {
		switch {
		case inClient && !inServer:
			return ClassNewUpload
		case inServer && !inClient:
			return ClassNewDownload
		case inServer && inClient && server.ContentHash != client.ContentHash:
			// Created independently on both sides with different content.
			return ClassBothModified
		default:
			return ClassUnchanged
		}
	}

	switch {
	case !inServer && !inClient:
		// Already deleted on both sides.
		return ClassUnchanged
	case !inServer:
		if client.ContentHash == base.ContentHash {
			return ClassDeleteRemote
		}
		return ClassBothModified
	case !inClient:
		if server.ContentHash == base.ContentHash {
			return ClassDeleteLocal
		}
		return ClassBothModified
	}

	serverChanged := server.ContentHash != base.ContentHash
	clientChanged := client.ContentHash != base.ContentHash
	switch {
	case !serverChanged && !clientChanged:
		return ClassUnchanged
	case serverChanged && !clientChanged:
		return ClassNewDownload
	case clientChanged && !serverChanged:
		return ClassNewUpload
	case server.ContentHash == client.ContentHash:
		// Identical edit on both sides.
		return ClassUnchanged
	default:
		return ClassBothModified
	}
}
