package service

import "github.com/Devsama007/File-Share/internal/model"

// Decision is the outcome of a read-access resolution. Expired is kept
// distinct from Forbidden so the boundary can answer 410 instead of 403.
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionForbidden
	DecisionExpired
)

// AccessPolicy holds the share-resolution knobs.
//
// LinkSharesVisibleToAll: when set, the mere existence of an unexpired link
// share grants read access to every authenticated user through the
// id-based paths, not only to holders of the token. The token path
// (ResolveByToken / DownloadByToken) never consults this flag.
type AccessPolicy struct {
	LinkSharesVisibleToAll bool
}

// CanMutate reports whether userID may delete or re-share the file.
// Mutation is owner-only; there is no delegation.
func CanMutate(userID string, file *model.File) bool {
	return file != nil && userID == file.OwnerID
}

// IsValidShare reports whether the share's validity window is still open at
// now. ExpiresAt == 0 means the grant never lapses. Expired records persist
// until explicitly deleted; there is no transition back to valid.
func IsValidShare(share *model.Share, now int64) bool {
	return share.ExpiresAt == 0 || share.ExpiresAt > now
}

// ResolveRead decides whether userID may read the file given every share on
// it. Owners always pass. Otherwise any valid matching share allows; if the
// only matching shares have lapsed the result is DecisionExpired, and with
// no matching share at all it is DecisionForbidden.
func ResolveRead(userID string, file *model.File, shares []model.Share, now int64, policy AccessPolicy) Decision {
	if CanMutate(userID, file) {
		return DecisionAllow
	}
	sawExpired := false
	for i := range shares {
		share := &shares[i]
		if !shareMatches(userID, share, policy) {
			continue
		}
		if IsValidShare(share, now) {
			return DecisionAllow
		}
		sawExpired = true
	}
	if sawExpired {
		return DecisionExpired
	}
	return DecisionForbidden
}

func shareMatches(userID string, share *model.Share, policy AccessPolicy) bool {
	switch share.Kind {
	case model.ShareKindUser:
		for _, grantee := range share.GrantedTo {
			if grantee == userID {
				return true
			}
		}
		return false
	case model.ShareKindLink:
		return policy.LinkSharesVisibleToAll
	default:
		return false
	}
}
