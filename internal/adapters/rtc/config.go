// Package rtc describes the WebRTC setup clients use for peer connections.
// The server only relays negotiation messages; it never opens a peer
// connection itself.
package rtc

import (
	"strings"

	"github.com/pion/webrtc/v4"
)

// DefaultICEServers is used when the config lists none.
var DefaultICEServers = []string{"stun:stun.l.google.com:19302"}

// WebRTCConfig builds the configuration handed to clients. Blank entries
// are skipped.
func WebRTCConfig(urls []string) webrtc.Configuration {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	if len(clean) == 0 {
		clean = DefaultICEServers
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: clean},
		},
	}
}
