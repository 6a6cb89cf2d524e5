package router

import (
	"strconv"

	"github.com/go-routeros/routeros/v3/proto"
)

// ActiveSession is one row of the router's /ip/hotspot/active table.
// Duration fields carry the router's compact token encoding ("1d2h3m4s")
// unmodified; normalization happens in the telemetry layer.
type ActiveSession struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Address         string `json:"address"`
	MACAddress      string `json:"mac_address"`
	Uptime          string `json:"uptime"`
	IdleTime        string `json:"idle_time"`
	SessionTimeLeft string `json:"session_time_left"`
	BytesIn         int64  `json:"bytes_in"`
	BytesOut        int64  `json:"bytes_out"`
	Profile         string `json:"profile"`
	RateLimit       string `json:"rate_limit,omitempty"`
	LimitUptime     string `json:"limit_uptime,omitempty"`
}

// HotspotUser is one row of /ip/hotspot/user.
type HotspotUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Profile     string `json:"profile"`
	MACAddress  string `json:"mac_address,omitempty"`
	Comment     string `json:"comment,omitempty"`
	LimitUptime string `json:"limit_uptime,omitempty"`
	BytesIn     int64  `json:"limit_bytes_in,omitempty"`
	BytesOut    int64  `json:"limit_bytes_out,omitempty"`
	Active      bool   `json:"is_active"`
}

// NewUser describes a hotspot user to create on the router.
type NewUser struct {
	Username   string
	Password   string
	Profile    string
	MACAddress string
	Comment    string
}

// SystemInfo is a merged read of /system/resource and /system/identity.
// Values are passed through as the router reports them.
type SystemInfo struct {
	Identity      string `json:"identity"`
	Version       string `json:"version"`
	Uptime        string `json:"uptime"`
	CPULoad       string `json:"cpu_load"`
	FreeMemory    string `json:"free_memory"`
	TotalMemory   string `json:"total_memory"`
	FreeHDDSpace  string `json:"free_hdd_space"`
	TotalHDDSpace string `json:"total_hdd_space"`
}

func sessionFromSentence(re *proto.Sentence) ActiveSession {
	m := re.Map
	return ActiveSession{
		ID:              m[".id"],
		Username:        m["user"],
		Address:         m["address"],
		MACAddress:      m["mac-address"],
		Uptime:          m["uptime"],
		IdleTime:        m["idle-time"],
		SessionTimeLeft: m["session-time-left"],
		BytesIn:         atoi64(m["bytes-in"]),
		BytesOut:        atoi64(m["bytes-out"]),
		Profile:         m["profile"],
		RateLimit:       m["rate-limit"],
		LimitUptime:     m["limit-uptime"],
	}
}

func userFromSentence(re *proto.Sentence) HotspotUser {
	m := re.Map
	return HotspotUser{
		ID:          m[".id"],
		Username:    m["name"],
		Profile:     m["profile"],
		MACAddress:  m["mac-address"],
		Comment:     m["comment"],
		LimitUptime: m["limit-uptime"],
		BytesIn:     atoi64(m["limit-bytes-in"]),
		BytesOut:    atoi64(m["limit-bytes-out"]),
		Active:      m["disabled"] != "true",
	}
}

func atoi64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
