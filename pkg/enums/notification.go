package enums

import "fmt"

// NotificationType identifies the email template a notification renders with.
type NotificationType string

const (
	NotificationTypeOrderStatus          NotificationType = "order_status"
	NotificationTypeDeliveryConfirmation NotificationType = "delivery_confirmation"
	NotificationTypeDeliveryOTP          NotificationType = "delivery_otp"
	NotificationTypeEmailVerification    NotificationType = "email_verification"
	NotificationTypeMagicLink            NotificationType = "magic_link"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderStatus,
	NotificationTypeDeliveryConfirmation,
	NotificationTypeDeliveryOTP,
	NotificationTypeEmailVerification,
	NotificationTypeMagicLink,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
