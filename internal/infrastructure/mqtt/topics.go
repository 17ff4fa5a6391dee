package mqtt

// Topic structure for Portal Core.
//
// All topics live under the portal/ prefix:
//
//	portal/event/added            tag placed on a pad
//	portal/event/removed          tag removed from a pad
//	portal/response/add/success   handler outcome mirrors
//	portal/response/add/error
//	portal/response/remove/success
//	portal/response/remove/error
//	portal/response/processing    long-running handler started
//	portal/command/color          inbound pad colour commands
//	portal/system/status          online/offline status (retained, LWT)
const topicPrefix = "portal"

// Topics builds Portal Core topic strings. Using a struct keeps call
// sites uniform and greppable:
//
//	client.Publish(mqtt.Topics{}.TagAdded(), payload, 1, false)
type Topics struct{}

// TagAdded is the topic for tag placement events.
func (Topics) TagAdded() string {
	return topicPrefix + "/event/added"
}

// TagRemoved is the topic for tag removal events.
func (Topics) TagRemoved() string {
	return topicPrefix + "/event/removed"
}

// ResponseAddSuccess is the topic mirroring successful add handling.
func (Topics) ResponseAddSuccess() string {
	return topicPrefix + "/response/add/success"
}

// ResponseAddError is the topic mirroring failed add handling.
func (Topics) ResponseAddError() string {
	return topicPrefix + "/response/add/error"
}

// ResponseRemoveSuccess is the topic mirroring successful remove handling.
func (Topics) ResponseRemoveSuccess() string {
	return topicPrefix + "/response/remove/success"
}

// ResponseRemoveError is the topic mirroring failed remove handling.
func (Topics) ResponseRemoveError() string {
	return topicPrefix + "/response/remove/error"
}

// ResponseProcessing is the topic mirroring processing-started pulses.
func (Topics) ResponseProcessing() string {
	return topicPrefix + "/response/processing"
}

// CommandColor is the topic external integrations publish pad colour
// commands to.
func (Topics) CommandColor() string {
	return topicPrefix + "/command/color"
}

// SystemStatus is the retained online/offline status topic, also used for
// the Last Will and Testament.
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// AllEvents matches both tag event topics.
func (Topics) AllEvents() string {
	return topicPrefix + "/event/+"
}

// AllResponses matches every handler response topic.
func (Topics) AllResponses() string {
	return topicPrefix + "/response/#"
}
