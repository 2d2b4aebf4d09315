package scanner

import (
	"path/filepath"
	"strings"
)

// supportedExtensions is the set of container extensions the scanner
// stages. Everything else on disk is ignored.
var supportedExtensions = map[string]struct{}{
	"001": {}, "3g2": {}, "3gp": {}, "amv": {}, "asf": {}, "asx": {},
	"avi": {}, "bin": {}, "bivx": {}, "divx": {}, "dv": {}, "dvr-ms": {},
	"f4v": {}, "fli": {}, "flv": {}, "ifo": {}, "img": {}, "iso": {},
	"m2t": {}, "m2ts": {}, "m2v": {}, "m4v": {}, "mkv": {}, "mk3d": {},
	"mov": {}, "mp4": {}, "mpe": {}, "mpeg": {}, "mpg": {}, "mts": {},
	"mxf": {}, "nrg": {}, "nsv": {}, "nuv": {}, "ogg": {}, "ogm": {},
	"ogv": {}, "pva": {}, "qt": {}, "rec": {}, "rm": {}, "rmvb": {},
	"strm": {}, "svq3": {}, "tp": {}, "ts": {}, "ty": {}, "viv": {},
	"vob": {}, "vp3": {}, "webm": {}, "wmv": {}, "wtv": {}, "xvid": {},
}

// supportedFile reports whether the path has a recognised media
// extension.
func supportedFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := supportedExtensions[ext]
	return ok
}
