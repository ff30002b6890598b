package marketplace

import "time"

type actionKey struct {
	marketplace Marketplace
	action      Action
}

// actionCatalog lists the supported (marketplace, action) pairs with their defaults
var actionCatalog = map[actionKey]ActionSpec{
	{Vinted, ActionPublish}:      {Vinted, ActionPublish, PriorityHigh, 3, time.Hour},
	{Vinted, ActionUpdate}:       {Vinted, ActionUpdate, PriorityNormal, 3, time.Hour},
	{Vinted, ActionDelete}:       {Vinted, ActionDelete, PriorityHigh, 3, time.Hour},
	{Vinted, ActionSync}:         {Vinted, ActionSync, PriorityLow, 2, 2 * time.Hour},
	{Vinted, ActionOrdersSync}:   {Vinted, ActionOrdersSync, PriorityNormal, 2, 2 * time.Hour},
	{Vinted, ActionMessagesSync}: {Vinted, ActionMessagesSync, PriorityLow, 2, 2 * time.Hour},

	{Ebay, ActionPublish}:       {Ebay, ActionPublish, PriorityHigh, 3, time.Hour},
	{Ebay, ActionUpdate}:        {Ebay, ActionUpdate, PriorityNormal, 3, time.Hour},
	{Ebay, ActionDelete}:        {Ebay, ActionDelete, PriorityHigh, 3, time.Hour},
	{Ebay, ActionSync}:          {Ebay, ActionSync, PriorityLow, 2, 2 * time.Hour},
	{Ebay, ActionOrdersSync}:    {Ebay, ActionOrdersSync, PriorityNormal, 3, 2 * time.Hour},
	{Ebay, ActionInquiriesSync}: {Ebay, ActionInquiriesSync, PriorityNormal, 3, 2 * time.Hour},
	{Ebay, ActionPoliciesSync}:  {Ebay, ActionPoliciesSync, PriorityLow, 2, time.Hour},
}

// LookupAction returns the defaults for a (marketplace, action) pair
func LookupAction(m Marketplace, a Action) (ActionSpec, error) {
	if !m.IsValid() {
		return ActionSpec{}, ErrUnknownMarketplace
	}
	if !a.IsValid() {
		return ActionSpec{}, ErrUnknownAction
	}
	spec, ok := actionCatalog[actionKey{m, a}]
	if !ok {
		return ActionSpec{}, ErrUnsupportedAction
	}
	return spec, nil
}

// SupportedActions returns the actions available on a marketplace
func SupportedActions(m Marketplace) []Action {
	ordered := []Action{
		ActionPublish, ActionUpdate, ActionDelete, ActionSync,
		ActionOrdersSync, ActionMessagesSync, ActionInquiriesSync, ActionPoliciesSync,
	}
	out := make([]Action, 0, len(ordered))
	for _, a := range ordered {
		if _, ok := actionCatalog[actionKey{m, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}
