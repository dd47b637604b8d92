// Package mqtt publishes validation run summaries to an MQTT broker.
//
// Downstream consumers (CI dashboards, chat bots, governance tooling)
// subscribe to result topics instead of scraping report files:
//
//	dabcheck/validation/<project-slug>/result   run summary (JSON)
//	dabcheck/system/status                      online/offline presence (retained)
//
// The client is built for a short-lived process: it connects once, fails
// fast when the broker is unreachable and never auto-reconnects. A Last
// Will on the status topic marks runs that died without a clean disconnect.
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) outside local development
//   - Credentials come from config or DABCHECK_MQTT_USERNAME/PASSWORD
//   - Payloads carry finding messages, which may quote hardcoded values
//     found in bundle documents
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(projectPath, summary)
package mqtt
