package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

// Documents carry the entity's name inline: only text reaches the model, never metadata.

const dateLayout = "1/2/2006"

func clientMessageDoc(client core.Client, content, reply string) string {
	doc := fmt.Sprintf("Client %s: %s", client.Name, content)
	if reply != "" {
		doc += "\nAI Response: " + reply
	}
	return doc
}

func clientPreferenceDoc(client core.Client, preference string) string {
	return fmt.Sprintf("Client %s preference: %s", client.Name, preference)
}

func clientTripDoc(client core.Client, trip core.Trip, driverName string, loc *time.Location) string {
	assigned := "Unassigned"
	if driverName != "" {
		assigned = "Driver: " + driverName
	}
	doc := fmt.Sprintf("Trip for %s: From %s to %s on %s. Status: %s. Price: $%d. %s. %s",
		client.Name, trip.PickupLocation, trip.DropoffLocation, trip.PickupTime.In(loc).Format(dateLayout),
		trip.Status, trip.Price, assigned, trip.Notes)
	return strings.TrimSpace(doc)
}

func driverNoteDoc(driver core.Driver, note string, noteType core.NoteType) string {
	return fmt.Sprintf("%s note for driver %s: %s", capitalize(string(noteType)), driver.Name, note)
}

func driverTripDoc(driver core.Driver, trip core.Trip, clientName string, loc *time.Location) string {
	doc := fmt.Sprintf("Trip assigned to %s for client %s: From %s to %s on %s. Status: %s. %s",
		driver.Name, orUnknown(clientName), trip.PickupLocation, trip.DropoffLocation,
		trip.PickupTime.In(loc).Format(dateLayout), trip.Status, trip.Notes)
	return strings.TrimSpace(doc)
}

func driverMessageDoc(driver core.Driver, content, preamble string) string {
	doc := fmt.Sprintf("Driver %s message: %s", driver.Name, content)
	if preamble != "" {
		doc = preamble + "\n" + doc
	}
	return doc
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
