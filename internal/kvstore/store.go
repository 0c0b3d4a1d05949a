// Package kvstore abstracts the client-side key-value storage the form
// runtime persists into: in-progress drafts and the duplicate-prevention
// flag, both scoped per form id. The abstraction exists so the gate and
// draft logic test against an in-memory fake instead of real storage.
package kvstore

// Store is a synchronous string key-value store.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// DraftKey is the storage key for a form's in-progress answer draft.
func DraftKey(formID string) string {
	return "webform_draft_" + formID
}

// SubmittedKey is the storage key for a form's already-submitted flag.
func SubmittedKey(formID string) string {
	return "webform_submitted_" + formID
}
