package stream

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
)

const (
	mpdNamespace  = "urn:mpeg:dash:schema:mpd:2011"
	mpdProfiles   = "urn:mpeg:dash:profile:full:2011"
	mpdBufferTime = "PT20S"

	periodBaseURL = "/api/v1/stream/"

	audioChannelScheme = "urn:mpeg:dash:23003:3:audio_channel_configuration:2011"
	roleScheme         = "urn:mpeg:dash:role:2011"
)

type mpdRoot struct {
	XMLName                   xml.Name  `xml:"MPD"`
	Namespace                 string    `xml:"xmlns,attr"`
	Profiles                  string    `xml:"profiles,attr"`
	Type                      string    `xml:"type,attr"`
	MediaPresentationDuration string    `xml:"mediaPresentationDuration,attr"`
	MinBufferTime             string    `xml:"minBufferTime,attr"`
	MaxSegmentDuration        string    `xml:"maxSegmentDuration,attr"`
	Period                    mpdPeriod `xml:"Period"`
}

type mpdPeriod struct {
	BaseURL string             `xml:"BaseURL"`
	Sets    []mpdAdaptationSet `xml:"AdaptationSet"`
}

type mpdAdaptationSet struct {
	ID          int    `xml:"id,attr"`
	ContentType string `xml:"contentType,attr,omitempty"`
	MimeType    string `xml:"mimeType,attr,omitempty"`
	Lang        string `xml:"lang,attr,omitempty"`

	Representation mpdRepresentation `xml:"Representation"`

	// Subtitle sets carry the chunk path directly.
	BaseURL string `xml:"BaseURL,omitempty"`
}

type mpdDescriptor struct {
	SchemeIDURI string `xml:"schemeIdUri,attr"`
	Value       string `xml:"value,attr"`
}

type mpdSegmentTemplate struct {
	Timescale      int    `xml:"timescale,attr"`
	Duration       int    `xml:"duration,attr"`
	Initialization string `xml:"initialization,attr,omitempty"`
	Media          string `xml:"media,attr"`
	StartNumber    int    `xml:"startNumber,attr"`
}

type mpdRepresentation struct {
	ID        string
	Bandwidth int64
	MimeType  string
	Codecs    string
	// Args become additional attributes, emitted in sorted key order so
	// repeated compilation is byte-identical.
	Args map[string]string

	AudioChannels *mpdDescriptor
	Role          *mpdDescriptor
	Segments      *mpdSegmentTemplate
}

// MarshalXML is hand-rolled because the argument map carries attributes
// whose names are only known at runtime.
func (r mpdRepresentation) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	attr := func(name, value string) xml.Attr {
		return xml.Attr{Name: xml.Name{Local: name}, Value: value}
	}

	start.Attr = []xml.Attr{
		attr("id", r.ID),
		attr("bandwidth", strconv.FormatInt(r.Bandwidth, 10)),
	}
	if r.MimeType != "" {
		start.Attr = append(start.Attr, attr("mimeType", r.MimeType))
	}
	if r.Codecs != "" {
		start.Attr = append(start.Attr, attr("codecs", r.Codecs))
	}
	keys := make([]string, 0, len(r.Args))
	for k := range r.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		start.Attr = append(start.Attr, attr(k, r.Args[k]))
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if r.AudioChannels != nil {
		name := xml.StartElement{Name: xml.Name{Local: "AudioChannelConfiguration"}}
		if err := e.EncodeElement(r.AudioChannels, name); err != nil {
			return err
		}
	}
	if r.Role != nil {
		name := xml.StartElement{Name: xml.Name{Local: "Role"}}
		if err := e.EncodeElement(r.Role, name); err != nil {
			return err
		}
	}
	if r.Segments != nil {
		name := xml.StartElement{Name: xml.Name{Local: "SegmentTemplate"}}
		if err := e.EncodeElement(r.Segments, name); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func buildMPD(tracks []*Track, start int) string {
	var duration int
	if len(tracks) > 0 {
		duration = tracks[0].Duration
	}

	root := mpdRoot{
		Namespace:                 mpdNamespace,
		Profiles:                  mpdProfiles,
		Type:                      "static",
		MediaPresentationDuration: formatSeconds(duration),
		MinBufferTime:             mpdBufferTime,
		MaxSegmentDuration:        mpdBufferTime,
		Period:                    mpdPeriod{BaseURL: periodBaseURL},
	}
	for _, t := range tracks {
		root.Period.Sets = append(root.Period.Sets, buildSet(t, start))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	// Encoding a static struct tree into a buffer cannot fail.
	_ = enc.Encode(root)
	_ = enc.Flush()
	return buf.String()
}

func buildSet(t *Track, start int) mpdAdaptationSet {
	if t.ContentType == "subtitle" {
		return mpdAdaptationSet{
			ID:       t.SetID,
			MimeType: t.MimeType,
			Lang:     t.Lang,
			Representation: mpdRepresentation{
				ID:        t.ID,
				Bandwidth: t.Bandwidth,
			},
			BaseURL: t.ChunkPath,
		}
	}

	segments := &mpdSegmentTemplate{
		Timescale:   1,
		Duration:    t.TargetDuration,
		Media:       t.ChunkPath,
		StartNumber: start,
	}
	// The init segment is optional; tracks without one get no
	// initialization attribute at all.
	if t.InitSegment != "" {
		segments.Initialization = fmt.Sprintf("%s?start_num=%d", t.InitSegment, start)
	}

	rep := mpdRepresentation{
		ID:        t.ID,
		Bandwidth: t.Bandwidth,
		MimeType:  t.MimeType,
		Codecs:    t.Codecs,
		Args:      t.Args,
		Segments:  segments,
	}
	if t.ContentType == "audio" {
		// Stereo is declared unconditionally until multi-channel
		// support lands.
		rep.AudioChannels = &mpdDescriptor{SchemeIDURI: audioChannelScheme, Value: "2"}
	}
	if t.Default {
		rep.Role = &mpdDescriptor{SchemeIDURI: roleScheme, Value: "main"}
	}

	return mpdAdaptationSet{
		ID:             t.SetID,
		ContentType:    t.ContentType,
		Lang:           t.Lang,
		Representation: rep,
	}
}

// formatSeconds renders a duration as ISO 8601, omitting zeroed fields.
// Zero seconds comes out as a bare "PT".
func formatSeconds(seconds int) string {
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60

	out := "PT"
	if h > 0 {
		out += strconv.Itoa(h) + "H"
	}
	if m > 0 {
		out += strconv.Itoa(m) + "M"
	}
	if s > 0 {
		out += strconv.Itoa(s) + "S"
	}
	return out
}
