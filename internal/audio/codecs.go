package audio

// encoderName maps a negotiated codec to the ffmpeg encoder passed with
// -c:a. The capability probe checks this same name.
func encoderName(codec string) string {
	switch codec {
	case "":
		return ""
	case "opus":
		return "libopus"
	case "vorbis":
		return "libvorbis"
	default:
		return codec
	}
}
