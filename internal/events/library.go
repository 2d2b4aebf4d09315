package events

// Event type constants for subscription.
const (
	TypeStartedScanning = "library.scan_started"
	TypeStoppedScanning = "library.scan_stopped"
	TypeNewLibrary      = "library.created"
	TypeRemoveLibrary   = "library.removed"
	TypeNewCard         = "media.card_added"
)

// StartedScanning is emitted when a library scan begins.
type StartedScanning struct {
	BaseEvent
	LibraryID int64 `json:"library_id"`
}

// NewStartedScanning creates a scan-started event for a library.
func NewStartedScanning(libraryID int64) StartedScanning {
	return StartedScanning{
		BaseEvent: NewBaseEvent(TypeStartedScanning, "library", libraryID),
		LibraryID: libraryID,
	}
}

// StoppedScanning is emitted when a library scan finishes, successfully
// or not.
type StoppedScanning struct {
	BaseEvent
	LibraryID int64 `json:"library_id"`
}

// NewStoppedScanning creates a scan-stopped event for a library.
func NewStoppedScanning(libraryID int64) StoppedScanning {
	return StoppedScanning{
		BaseEvent: NewBaseEvent(TypeStoppedScanning, "library", libraryID),
		LibraryID: libraryID,
	}
}

// NewLibrary is emitted when a library is created.
type NewLibrary struct {
	BaseEvent
	LibraryID int64 `json:"library_id"`
}

// NewNewLibrary creates a library-created event.
func NewNewLibrary(libraryID int64) NewLibrary {
	return NewLibrary{
		BaseEvent: NewBaseEvent(TypeNewLibrary, "library", libraryID),
		LibraryID: libraryID,
	}
}

// RemoveLibrary is emitted when a library and its media are deleted.
type RemoveLibrary struct {
	BaseEvent
	LibraryID int64 `json:"library_id"`
}

// NewRemoveLibrary creates a library-removed event.
func NewRemoveLibrary(libraryID int64) RemoveLibrary {
	return RemoveLibrary{
		BaseEvent: NewBaseEvent(TypeRemoveLibrary, "library", libraryID),
		LibraryID: libraryID,
	}
}

// NewCard is emitted when the matcher creates a media record, so clients
// can render the new card without rescanning.
type NewCard struct {
	BaseEvent
	MediaID int64 `json:"media_id"`
}

// NewNewCard creates a card-added event for a media record.
func NewNewCard(mediaID int64) NewCard {
	return NewCard{
		BaseEvent: NewBaseEvent(TypeNewCard, "media", mediaID),
		MediaID:   mediaID,
	}
}
