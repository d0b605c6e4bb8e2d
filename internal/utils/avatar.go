package utils

import "fmt"

// AvatarURL builds a deterministic avatar image URL for a user ID. Image
// generation itself is an external service; only the URL is constructed here.
func AvatarURL(userID string) string {
	return fmt.Sprintf("https://api.dicebear.com/9.x/shapes/svg?seed=%s", userID)
}
