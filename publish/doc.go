/*
Package publish delivers messages for the /publish endpoint.

Two backends implement Publisher: IoTPublisher sends through the AWS IoT data
plane (QoS 0 or 1) and MQTTPublisher sends to an MQTT broker through paho
(QoS 0, 1 or 2). Query parameters are turned into a message with EncodePayload
and ParseQoS:

	payload := publish.EncodePayload(r.URL.Query().Get("payload"), r.URL.Query().Has("payload"))
	qos, err := publish.ParseQoS(r.URL.Query().Get("qos"), p.MaxQoS())
	err = p.Publish(ctx, "home/lights/kitchen", payload, qos)
*/
package publish
