package domain

import "fmt"

type ActorKind string

const (
	ActorAdmin  ActorKind = "admin"
	ActorOwner  ActorKind = "owner"
	ActorSystem ActorKind = "system"
)

// Actor identifies who performed a transition. ID is zero for ActorSystem.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   int64     `json:"id,omitempty"`
}

func Admin(id int64) Actor { return Actor{Kind: ActorAdmin, ID: id} }
func Owner(id int64) Actor { return Actor{Kind: ActorOwner, ID: id} }
func System() Actor        { return Actor{Kind: ActorSystem} }

func (a Actor) IsAdmin() bool { return a.Kind == ActorAdmin }

// IDPtr returns the actor id for nullable columns.
func (a Actor) IDPtr() *int64 {
	if a.Kind == ActorSystem || a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) Validate() error {
	switch a.Kind {
	case ActorAdmin, ActorOwner:
		if a.ID <= 0 {
			return NewValidationError("actor", "actor id must be positive")
		}
		return nil
	case ActorSystem:
		return nil
	default:
		return NewValidationError("actor", fmt.Sprintf("unknown actor kind %q", a.Kind))
	}
}

func (a Actor) String() string {
	if a.Kind == ActorSystem {
		return string(a.Kind)
	}
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}
