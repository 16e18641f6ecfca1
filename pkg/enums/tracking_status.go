package enums

import "fmt"

// TrackingStatus is the status vocabulary of the order tracking ledger.
type TrackingStatus string

const (
	TrackingStatusPlaced     TrackingStatus = "placed"
	TrackingStatusProcessing TrackingStatus = "processing"
	TrackingStatusShipped    TrackingStatus = "shipped"
	TrackingStatusInTransit  TrackingStatus = "in_transit"
	TrackingStatusDelivered  TrackingStatus = "delivered"
	TrackingStatusCancelled  TrackingStatus = "cancelled"
)

// trackingSequence is the forward order statuses must follow; cancelled sits outside it.
var trackingSequence = []TrackingStatus{
	TrackingStatusPlaced,
	TrackingStatusProcessing,
	TrackingStatusShipped,
	TrackingStatusInTransit,
	TrackingStatusDelivered,
}

var validTrackingStatuses = append(append([]TrackingStatus{}, trackingSequence...), TrackingStatusCancelled)

var trackingLabels = map[TrackingStatus]string{
	TrackingStatusPlaced:     "Order Placed",
	TrackingStatusProcessing: "Processing",
	TrackingStatusShipped:    "Shipped",
	TrackingStatusInTransit:  "In Transit",
	TrackingStatusDelivered:  "Delivered",
	TrackingStatusCancelled:  "Cancelled",
}

// String implements fmt.Stringer.
func (t TrackingStatus) String() string {
	return string(t)
}

// Label returns the customer-facing name of the status.
func (t TrackingStatus) Label() string {
	if label, ok := trackingLabels[t]; ok {
		return label
	}
	return string(t)
}

// IsValid reports whether the value is a known TrackingStatus.
func (t TrackingStatus) IsValid() bool {
	for _, candidate := range validTrackingStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// Position returns the index of the status within the forward sequence, or -1
// for cancelled and unknown values.
func (t TrackingStatus) Position() int {
	for idx, candidate := range trackingSequence {
		if candidate == t {
			return idx
		}
	}
	return -1
}

// IsTerminal reports whether no forward progress is possible after this status.
func (t TrackingStatus) IsTerminal() bool {
	return t == TrackingStatusDelivered || t == TrackingStatusCancelled
}

// TrackingStatuses returns every status in display order.
func TrackingStatuses() []TrackingStatus {
	out := make([]TrackingStatus, len(validTrackingStatuses))
	copy(out, validTrackingStatuses)
	return out
}

// ParseTrackingStatus converts raw input into a TrackingStatus.
func ParseTrackingStatus(value string) (TrackingStatus, error) {
	for _, candidate := range validTrackingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking status %q", value)
}
