package audit

import (
	"fmt"
	"math"
	"slices"

	"matinee/internal/config"
)

// evaluate checks one probed file against the delivery thresholds. Unknown
// fields (zero values) are skipped; the probe concern already covers them.
func evaluate(s MediaSummary, rules config.Audit) []Concern {
	var concerns []Concern
	add := func(severity Severity, category, format string, args ...any) {
		concerns = append(concerns, Concern{
			Severity: severity,
			Category: category,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if s.Width > 0 && s.Height > 0 {
		if s.Width < rules.TargetWidth || s.Height < rules.TargetHeight {
			add(SeverityCritical, "resolution", "%dx%d below delivery target %dx%d",
				s.Width, s.Height, rules.TargetWidth, rules.TargetHeight)
		}
		aspect := float64(s.Width) / float64(s.Height)
		if !aspectAccepted(aspect, rules.AspectRatios, rules.AspectTolerance) {
			add(SeverityWarning, "aspect", "aspect ratio %.2f outside accepted set %v",
				aspect, rules.AspectRatios)
		}
	}

	if s.VideoCodec != "" && !slices.Contains(rules.VideoCodecs, s.VideoCodec) {
		add(SeverityCritical, "video_codec", "video codec %s not in accepted set %v",
			s.VideoCodec, rules.VideoCodecs)
	}
	if s.AudioCodec != "" && !slices.Contains(rules.AudioCodecs, s.AudioCodec) {
		add(SeverityCritical, "audio_codec", "audio codec %s not in accepted set %v",
			s.AudioCodec, rules.AudioCodecs)
	}

	if s.Channels > 0 && !slices.Contains(rules.AudioChannels, s.Channels) {
		add(SeverityWarning, "channels", "%d audio channels; expected one of %v",
			s.Channels, rules.AudioChannels)
	}
	// ffprobe reports SMPTE-ordered 5.1 as plain "5.1"; anything else on six
	// channels deserves a look before the projection booth finds out.
	if s.Channels == 6 && s.ChannelLayout != "" && s.ChannelLayout != "5.1" {
		add(SeverityInfo, "channel_order", "channel layout %q; confirm SMPTE order",
			s.ChannelLayout)
	}

	if mbps := s.VideoMbps(); mbps > 0 {
		if mbps < rules.MinVideoMbps {
			add(SeverityWarning, "bitrate", "%.1f Mbps below minimum %.1f", mbps, rules.MinVideoMbps)
		} else if mbps > rules.MaxVideoMbps {
			add(SeverityWarning, "bitrate", "%.1f Mbps above maximum %.1f", mbps, rules.MaxVideoMbps)
		}
	}

	if s.FPS > 0 && (s.FPS < rules.MinFPS || s.FPS > rules.MaxFPS) {
		add(SeverityWarning, "frame_rate", "%.2f fps outside %.1f-%.1f",
			s.FPS, rules.MinFPS, rules.MaxFPS)
	}

	if minutes := s.DurationSeconds / 60; minutes > 0 && (minutes < rules.MinMinutes || minutes > rules.MaxMinutes) {
		add(SeverityWarning, "duration", "%.1f minutes outside %.0f-%.0f",
			minutes, rules.MinMinutes, rules.MaxMinutes)
	}

	if gb := s.SizeGB(); gb > 0 && (gb < rules.MinGB || gb > rules.MaxGB) {
		add(SeverityWarning, "size", "%.2f GB outside %.1f-%.1f",
			gb, rules.MinGB, rules.MaxGB)
	}

	return concerns
}

func aspectAccepted(aspect float64, accepted []float64, tolerance float64) bool {
	if len(accepted) == 0 {
		return true
	}
	for _, ratio := range accepted {
		if math.Abs(aspect-ratio) <= tolerance {
			return true
		}
	}
	return false
}
