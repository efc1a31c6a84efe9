package notify

import "fmt"

// WelcomeMessage greets a guest whose vehicle was just checked in.
func WelcomeMessage(guestName, tag string) string {
	return fmt.Sprintf(
		"Welcome %s! Your vehicle is checked in with the valet under tag %s. "+
			"Reply to this number or use your valet link to request it any time.",
		guestName, tag)
}

// RoomReadyMessage tells a guest their stored luggage has been delivered to
// their room.
func RoomReadyMessage(guestName, roomNumber string) string {
	return fmt.Sprintf(
		"Hi %s, your luggage has been delivered to room %s.",
		guestName, roomNumber)
}
