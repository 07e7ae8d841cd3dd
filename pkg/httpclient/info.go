package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Info is the response metadata captured alongside the body. JSON names follow
// the familiar curl_getinfo keys.
type Info struct {
	StatusCode    int           `json:"http_code"`
	Status        string        `json:"status,omitempty"`
	Proto         string        `json:"proto,omitempty"`
	Method        string        `json:"method"`
	URL           string        `json:"url"`
	ContentType   string        `json:"content_type,omitempty"`
	Header        http.Header   `json:"header,omitempty"`
	SizeDownload  int64         `json:"size_download"`
	NameLookup    time.Duration `json:"namelookup_time"`
	ConnectTime   time.Duration `json:"connect_time"`
	TLSHandshake  time.Duration `json:"appconnect_time"`
	ServerTime    time.Duration `json:"starttransfer_time"`
	TotalTime     time.Duration `json:"total_time"`
	ConnReused    bool          `json:"conn_reused"`
	RemoteAddr    string        `json:"primary_ip,omitempty"`
	EmptyReply    bool          `json:"empty_reply,omitempty"`
	ReceivedAt    time.Time     `json:"received_at"`
	RedirectCount int           `json:"redirect_count"`
}

// newInfo collects metadata from a resty response. resp may be nil or lack a
// raw response when the transport failed.
func newInfo(method, target string, resp *resty.Response) Info {
	info := Info{Method: method, URL: target}
	if resp == nil {
		return info
	}

	if resp.Request != nil {
		ti := resp.Request.TraceInfo()
		info.NameLookup = positive(ti.DNSLookup)
		info.ConnectTime = positive(ti.ConnTime)
		info.TLSHandshake = positive(ti.TLSHandshake)
		info.ServerTime = positive(ti.ServerTime)
		info.TotalTime = positive(ti.TotalTime)
		info.ConnReused = ti.IsConnReused
		if ti.RemoteAddr != nil {
			info.RemoteAddr = ti.RemoteAddr.String()
		}
	}

	if resp.RawResponse == nil {
		return info
	}
	info.StatusCode = resp.StatusCode()
	info.Status = resp.Status()
	info.Proto = resp.Proto()
	info.Header = resp.Header().Clone()
	info.ContentType = resp.Header().Get("Content-Type")
	info.SizeDownload = resp.Size()
	info.ReceivedAt = resp.ReceivedAt()
	if info.TotalTime == 0 {
		info.TotalTime = resp.Time()
	}
	if final := resp.RawResponse.Request; final != nil && final.URL != nil {
		u := *final.URL
		u.User = nil
		info.URL = u.String()
		info.RedirectCount = redirectCount(final)
	}
	return info
}

func redirectCount(req *http.Request) int {
	n := 0
	for r := req.Response; r != nil && r.Request != nil; r = r.Request.Response {
		n++
	}
	return n
}

// positive drops the negative spans resty reports for phases that never completed.
func positive(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
