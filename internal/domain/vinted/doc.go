// Package vinted models Stoflow's view of the Vinted marketplace: listing links,
// orders, inbox conversations and the mapping tables that translate catalog
// attributes into Vinted catalog and attribute ids.
//
// Vinted has no public API. Every remote operation goes through the seller's
// browser extension (the plugin), see infrastructure/vinted.
package vinted
