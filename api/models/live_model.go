package models

import (
	"sort"
	"sync"

	"github.com/moyoez/nanalyzer-go/live"
)

// Live channels are not kept in a ttl cache: an expired entry would leave its socket
// open with nobody able to close it.
var (
	liveMu       sync.Mutex
	liveChannels = make(map[string]*live.Channel)
	liveOptions  []live.Option
)

// SetLiveOptions sets options appended to every new live channel (dialer, logger).
func SetLiveOptions(opts ...live.Option) {
	liveMu.Lock()
	defer liveMu.Unlock()
	liveOptions = opts
}

func GetLiveOptions() []live.Option {
	liveMu.Lock()
	defer liveMu.Unlock()
	return append([]live.Option(nil), liveOptions...)
}

// PutLiveChannel stores ch for callID unless one is already stored, in which case the
// existing channel is returned and ch is not stored.
func PutLiveChannel(callID string, ch *live.Channel) *live.Channel {
	liveMu.Lock()
	defer liveMu.Unlock()
	if existing, ok := liveChannels[callID]; ok {
		return existing
	}
	liveChannels[callID] = ch
	return nil
}

func GetLiveChannel(callID string) *live.Channel {
	liveMu.Lock()
	defer liveMu.Unlock()
	return liveChannels[callID]
}

// RemoveLiveChannel unregisters and returns the channel of callID. The caller closes it.
func RemoveLiveChannel(callID string) *live.Channel {
	liveMu.Lock()
	defer liveMu.Unlock()
	ch := liveChannels[callID]
	delete(liveChannels, callID)
	return ch
}

// LiveCallIDs lists the calls with a registered channel, sorted.
func LiveCallIDs() []string {
	liveMu.Lock()
	defer liveMu.Unlock()
	ids := make([]string, 0, len(liveChannels))
	for id := range liveChannels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAllLiveChannels tears down every registered channel, used on shutdown.
func CloseAllLiveChannels() {
	liveMu.Lock()
	channels := liveChannels
	liveChannels = make(map[string]*live.Channel)
	liveMu.Unlock()
	for _, ch := range channels {
		ch.Close()
	}
}
