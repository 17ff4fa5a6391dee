// Package mqtt provides the MQTT client and event mirror for Portal Core.
//
// The Client wraps paho.mqtt.golang with connection management,
// subscription restoration on reconnect, Last Will and Testament for
// offline detection, and panic-recovering message handlers.
//
// The Mirror republishes the in-process event bus onto broker topics
// under the portal/ prefix so external systems can react to tag activity.
// The CommandListener is the inbound half: it subscribes to the command
// topic and lets external integrations drive the pad lights.
// All of it is optional: the controller runs identically with MQTT
// disabled.
package mqtt
