package marketplace

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownMarketplace = errors.New("marketplace: unknown marketplace")
	ErrUnknownAction      = errors.New("marketplace: unknown action")
	ErrUnsupportedAction  = errors.New("marketplace: action not supported on this marketplace")
)

// Marketplace identifies an external sales channel
type Marketplace string

const (
	Vinted Marketplace = "VINTED"
	Ebay   Marketplace = "EBAY"
)

// AllMarketplaces returns the marketplaces Stoflow integrates with
func AllMarketplaces() []Marketplace {
	return []Marketplace{Vinted, Ebay}
}

// IsValid checks the marketplace code
func (m Marketplace) IsValid() bool {
	switch m {
	case Vinted, Ebay:
		return true
	}
	return false
}

func (m Marketplace) String() string {
	return string(m)
}

// ParseMarketplace accepts any casing ("vinted", "EBAY")
func ParseMarketplace(s string) (Marketplace, error) {
	m := Marketplace(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrUnknownMarketplace
	}
	return m, nil
}

// Action is the kind of work a job performs
type Action string

const (
	ActionPublish       Action = "publish"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionSync          Action = "sync"
	ActionOrdersSync    Action = "orders_sync"
	ActionMessagesSync  Action = "messages_sync"
	ActionInquiriesSync Action = "inquiries_sync"
	ActionPoliciesSync  Action = "policies_sync"
)

// IsValid checks the action code
func (a Action) IsValid() bool {
	switch a {
	case ActionPublish, ActionUpdate, ActionDelete, ActionSync,
		ActionOrdersSync, ActionMessagesSync, ActionInquiriesSync, ActionPoliciesSync:
		return true
	}
	return false
}

// IsProductLevel reports whether the action targets a single product
func (a Action) IsProductLevel() bool {
	switch a {
	case ActionPublish, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// ParseAction normalizes and validates an action code
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.IsValid() {
		return "", ErrUnknownAction
	}
	return a, nil
}

// Priority orders the job queue; lower values run first
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityNormal   Priority = 3
	PriorityLow      Priority = 4
)

// IsValid checks the priority range
func (p Priority) IsValid() bool {
	return p >= PriorityCritical && p <= PriorityLow
}

// ActionSpec holds the defaults applied to new jobs of an action
type ActionSpec struct {
	Marketplace Marketplace
	Action      Action
	Priority    Priority
	MaxRetries  int
	Timeout     time.Duration
}
