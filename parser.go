package sfzvoice

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/GeoffreyPlitt/debuggo"
)

var parserDebug = debuggo.Debug("sfzvoice:parser")

// SfzData is the parsed-but-unflattened SFZ file structure: the raw
// <global>/<group>/<region> sections before inheritance is resolved into
// concrete Regions.
type SfzData struct {
	Global  *SfzSection
	Groups  []*SfzSection
	Regions []*SfzSection
}

// SfzSection is one <global>, <group> or <region> block's raw opcode set.
type SfzSection struct {
	Type        string
	Opcodes     map[string]string
	ParentGroup *SfzSection
	GlobalRef   *SfzSection
}

// ParseSfzFile reads an SFZ file into its raw section structure.
func ParseSfzFile(filePath string) (*SfzData, error) {
	parserDebug("starting parse: %s", filePath)

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SFZ file: %w", err)
	}
	defer file.Close()

	sfzData := &SfzData{
		Groups:  make([]*SfzSection, 0),
		Regions: make([]*SfzSection, 0),
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0
	var currentSection *SfzSection
	var currentGroup *SfzSection

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">") {
			sectionType := strings.ToLower(strings.Trim(line, "<>"))

			currentSection = &SfzSection{
				Type:    sectionType,
				Opcodes: make(map[string]string),
			}

			switch sectionType {
			case "global":
				sfzData.Global = currentSection
			case "group", "master":
				currentGroup = currentSection
				currentSection.GlobalRef = sfzData.Global
				sfzData.Groups = append(sfzData.Groups, currentSection)
			case "region":
				currentSection.ParentGroup = currentGroup
				currentSection.GlobalRef = sfzData.Global
				sfzData.Regions = append(sfzData.Regions, currentSection)
			default:
				parserDebug("unknown section type: %s", sectionType)
			}
			continue
		}

		if currentSection != nil {
			parseOpcodes(line, currentSection, lineNum)
		} else {
			parserDebug("opcode outside of section at line %d: %s", lineNum, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading SFZ file: %w", err)
	}

	parserDebug("parse complete: %d regions, %d groups", len(sfzData.Regions), len(sfzData.Groups))
	return sfzData, nil
}

func parseOpcodes(line string, section *SfzSection, lineNum int) {
	parts := strings.Fields(line)

	for _, part := range parts {
		if strings.HasPrefix(part, "//") {
			break
		}

		equalIndex := strings.Index(part, "=")
		if equalIndex == -1 {
			continue
		}

		opcode := strings.ToLower(strings.TrimSpace(part[:equalIndex]))
		value := strings.TrimSpace(part[equalIndex+1:])

		if isKnownOpcode(opcode) {
			section.Opcodes[opcode] = value
		} else {
			parserDebug("unknown opcode %q at line %d", opcode, lineNum)
		}
	}
}

// isKnownOpcode allowlists every opcode the flattening pass understands.
// The CC-suffixed crossfade families (xfin_loccN, xfout_hiccN and the like)
// are matched by prefix in knownIndexedPrefix rather than being enumerated
// here; other indexed families are not matched.
func isKnownOpcode(opcode string) bool {
	known := map[string]bool{
		"sample": true,

		"lokey": true, "hikey": true, "key": true,
		"lovel": true, "hivel": true,

		"volume": true, "pan": true, "width": true, "position": true,
		"pitch_keycenter": true, "pitch_keytrack": true,
		"transpose": true, "tune": true, "pitch": true,

		"ampeg_delay": true, "ampeg_attack": true, "ampeg_hold": true,
		"ampeg_decay": true, "ampeg_sustain": true, "ampeg_release": true,

		"pitcheg_delay": true, "pitcheg_attack": true, "pitcheg_hold": true,
		"pitcheg_decay": true, "pitcheg_sustain": true, "pitcheg_release": true,
		"pitcheg_depth": true,

		"fileg_delay": true, "fileg_attack": true, "fileg_hold": true,
		"fileg_decay": true, "fileg_sustain": true, "fileg_release": true,
		"fileg_depth": true,

		"loop_mode": true, "loop_start": true, "loop_end": true,
		"sample_quality": true, "end": true,

		"fil_type": true, "cutoff": true, "resonance": true, "fil_gain": true,
		"eq1_type": true, "eq1_freq": true, "eq1_bw": true, "eq1_gain": true,
		"eq2_type": true, "eq2_freq": true, "eq2_bw": true, "eq2_gain": true,
		"eq3_type": true, "eq3_freq": true, "eq3_bw": true, "eq3_gain": true,

		"oscillator_multi":      true,
		"oscillator_mode":       true,
		"oscillator_detune":     true,
		"oscillator_mod_depth":  true,

		"sw_lokey": true, "sw_hikey": true,

		"group": true, "off_by": true, "off_mode": true, "off_time": true,
		"trigger": true,

		"bend_up": true, "bend_down": true, "bend_step": true,

		"sustain_cc": true, "sustain_lo": true, "sustain_sw": true,

		"xf_cccurve": true,
		"xfin_locc": true, "xfin_hicc": true,
		"xfout_locc": true, "xfout_hicc": true,

		"reverb_send": true, "reverb_room_size": true, "reverb_damping": true,
		"reverb_wet": true, "reverb_dry": true, "reverb_width": true,
	}
	if known[opcode] {
		return true
	}
	return knownIndexedPrefix(opcode)
}

// knownIndexedPrefix matches crossfade opcode families that carry a CC
// number suffix, e.g. xfin_locc74.
func knownIndexedPrefix(opcode string) bool {
	for _, prefix := range []string{"xfin_locc", "xfin_hicc", "xfout_locc", "xfout_hicc"} {
		if strings.HasPrefix(opcode, prefix) {
			if _, err := strconv.Atoi(opcode[len(prefix):]); err == nil {
				return true
			}
		}
	}
	return false
}

func (s *SfzSection) getInheritedValue(opcode string) (string, bool) {
	if s == nil {
		return "", false
	}
	if value, exists := s.Opcodes[opcode]; exists {
		return value, true
	}
	if s.ParentGroup != nil {
		if value, exists := s.ParentGroup.Opcodes[opcode]; exists {
			return value, true
		}
	}
	if s.GlobalRef != nil {
		if value, exists := s.GlobalRef.Opcodes[opcode]; exists {
			return value, true
		}
	}
	return "", false
}

func convertToInt(value, opcode string, defaultValue int) int {
	intVal, err := strconv.Atoi(value)
	if err != nil {
		parserDebug("invalid integer for opcode %s: %s", opcode, value)
		return defaultValue
	}
	return intVal
}

func convertToFloat(value, opcode string, defaultValue float64) float64 {
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		parserDebug("invalid float for opcode %s: %s", opcode, value)
		return defaultValue
	}
	return floatVal
}

func (s *SfzSection) GetInheritedStringOpcode(opcode string) string {
	value, _ := s.getInheritedValue(opcode)
	return value
}

func (s *SfzSection) GetInheritedIntOpcode(opcode string, defaultValue int) int {
	if value, exists := s.getInheritedValue(opcode); exists {
		return convertToInt(value, opcode, defaultValue)
	}
	return defaultValue
}

func (s *SfzSection) GetInheritedFloatOpcode(opcode string, defaultValue float64) float64 {
	if value, exists := s.getInheritedValue(opcode); exists {
		return convertToFloat(value, opcode, defaultValue)
	}
	return defaultValue
}

func (s *SfzSection) hasInherited(opcode string) bool {
	_, ok := s.getInheritedValue(opcode)
	return ok
}

// BuildRegions flattens every <region> in data against its <group> and
// <global> ancestors into a concrete, self-contained *Region, assigning each
// a stable ID used later as a ModMatrix key.
func BuildRegions(data *SfzData) []*Region {
	regions := make([]*Region, 0, len(data.Regions))
	for i, section := range data.Regions {
		regions = append(regions, flattenRegion(i, section))
	}
	return regions
}

func flattenRegion(id int, s *SfzSection) *Region {
	r := &Region{
		ID:       id,
		SampleID: s.GetInheritedStringOpcode("sample"),

		LoKey: s.GetInheritedIntOpcode("lokey", 0),
		HiKey: s.GetInheritedIntOpcode("hikey", 127),
		LoVel: s.GetInheritedIntOpcode("lovel", 0),
		HiVel: s.GetInheritedIntOpcode("hivel", 127),

		PitchKeycenter: s.GetInheritedIntOpcode("pitch_keycenter", 60),
		PitchKeytrack:  s.GetInheritedFloatOpcode("pitch_keytrack", 100),
		Transpose:      s.GetInheritedIntOpcode("transpose", 0),
		Tune:           s.GetInheritedFloatOpcode("tune", 0),
		Pitch:          s.GetInheritedFloatOpcode("pitch", 0),

		BendUp:   s.GetInheritedIntOpcode("bend_up", 200),
		BendDown: s.GetInheritedIntOpcode("bend_down", -200),
		BendStep: s.GetInheritedIntOpcode("bend_step", 0),

		VolumeDB: s.GetInheritedFloatOpcode("volume", 0),
		Pan:      s.GetInheritedFloatOpcode("pan", 0),
		Width:    s.GetInheritedFloatOpcode("width", 100),
		Position: s.GetInheritedFloatOpcode("position", 0),

		AmpEG: EnvelopeSpec{
			Delay:   s.GetInheritedFloatOpcode("ampeg_delay", 0),
			Attack:  s.GetInheritedFloatOpcode("ampeg_attack", 0),
			Hold:    s.GetInheritedFloatOpcode("ampeg_hold", 0),
			Decay:   s.GetInheritedFloatOpcode("ampeg_decay", 0),
			Sustain: s.GetInheritedFloatOpcode("ampeg_sustain", 100) / 100,
			Release: s.GetInheritedFloatOpcode("ampeg_release", 0),
		},

		LoopMode:      parseLoopMode(s.GetInheritedStringOpcode("loop_mode")),
		LoopStart:     s.GetInheritedIntOpcode("loop_start", 0),
		LoopEnd:       s.GetInheritedIntOpcode("loop_end", 0),
		TrueSampleEnd: s.GetInheritedIntOpcode("end", 0),
		SampleQuality: s.GetInheritedIntOpcode("sample_quality", 1),

		OscillatorMulti:    s.GetInheritedIntOpcode("oscillator_multi", 0),
		OscillatorMode:     parseOscillatorMode(s.GetInheritedStringOpcode("oscillator_mode")),
		OscillatorDetune:   s.GetInheritedFloatOpcode("oscillator_detune", 0),
		OscillatorModDepth: s.GetInheritedFloatOpcode("oscillator_mod_depth", 0),

		Group:   s.GetInheritedIntOpcode("group", 0),
		OffBy:   s.GetInheritedIntOpcode("off_by", 0),
		OffMode: parseOffMode(s.GetInheritedStringOpcode("off_mode")),
		OffTime: s.GetInheritedFloatOpcode("off_time", 0.006),

		TriggerMode: defaultString(s.GetInheritedStringOpcode("trigger"), "attack"),

		SwLoKey: s.GetInheritedIntOpcode("sw_lokey", -1),
		SwHiKey: s.GetInheritedIntOpcode("sw_hikey", -1),

		SustainCC:        s.GetInheritedIntOpcode("sustain_cc", 64),
		SustainThreshold: s.GetInheritedFloatOpcode("sustain_lo", 0.5),
		CheckSustain:     s.GetInheritedStringOpcode("sustain_sw") != "off",

		CrossfadeCurve: parseCrossfadeCurve(s.GetInheritedStringOpcode("xf_cccurve")),
	}

	if s.hasInherited("pitcheg_attack") || s.hasInherited("pitcheg_depth") {
		r.PitchEG = &EnvelopeSpec{
			Delay:   s.GetInheritedFloatOpcode("pitcheg_delay", 0),
			Attack:  s.GetInheritedFloatOpcode("pitcheg_attack", 0),
			Hold:    s.GetInheritedFloatOpcode("pitcheg_hold", 0),
			Decay:   s.GetInheritedFloatOpcode("pitcheg_decay", 0),
			Sustain: s.GetInheritedFloatOpcode("pitcheg_sustain", 0) / 100,
			Release: s.GetInheritedFloatOpcode("pitcheg_release", 0),
			Depth:   s.GetInheritedFloatOpcode("pitcheg_depth", 0),
		}
	}
	if s.hasInherited("fileg_attack") || s.hasInherited("fileg_depth") {
		r.FilterEG = &EnvelopeSpec{
			Delay:   s.GetInheritedFloatOpcode("fileg_delay", 0),
			Attack:  s.GetInheritedFloatOpcode("fileg_attack", 0),
			Hold:    s.GetInheritedFloatOpcode("fileg_hold", 0),
			Decay:   s.GetInheritedFloatOpcode("fileg_decay", 0),
			Sustain: s.GetInheritedFloatOpcode("fileg_sustain", 0) / 100,
			Release: s.GetInheritedFloatOpcode("fileg_release", 0),
			Depth:   s.GetInheritedFloatOpcode("fileg_depth", 0),
		}
	}

	if s.hasInherited("cutoff") || s.hasInherited("fil_type") {
		r.Filters = append(r.Filters, FilterSpec{
			Type:      parseFilterType(s.GetInheritedStringOpcode("fil_type")),
			Cutoff:    s.GetInheritedFloatOpcode("cutoff", 20000),
			Resonance: s.GetInheritedFloatOpcode("resonance", 0.707),
			GainDB:    s.GetInheritedFloatOpcode("fil_gain", 0),
		})
	}
	for _, n := range []string{"1", "2", "3"} {
		if !s.hasInherited("eq" + n + "_freq") {
			continue
		}
		r.EQs = append(r.EQs, FilterSpec{
			Type:      FilterPeak,
			Cutoff:    s.GetInheritedFloatOpcode("eq"+n+"_freq", 1000),
			Resonance: bandwidthToQ(s.GetInheritedFloatOpcode("eq"+n+"_bw", 1)),
			GainDB:    s.GetInheritedFloatOpcode("eq"+n+"_gain", 0),
		})
	}

	r.CrossfadeIn = collectCrossfadeRanges(s, "xfin_locc", "xfin_hicc")
	r.CrossfadeOut = collectCrossfadeRanges(s, "xfout_locc", "xfout_hicc")

	return r
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func parseLoopMode(v string) LoopMode {
	switch v {
	case "loop_continuous":
		return LoopContinuous
	case "loop_sustain":
		return LoopSustain
	case "one_shot":
		return LoopOneShot
	default:
		return LoopNone
	}
}

func parseOscillatorMode(v string) OscillatorMode {
	switch v {
	case "pm":
		return OscModePM
	case "fm":
		return OscModeFM
	default:
		return OscModeRM
	}
}

func parseOffMode(v string) OffMode {
	if v == "time" {
		return OffTime
	}
	return OffFast
}

func parseFilterType(v string) FilterType {
	switch v {
	case "hpf_2p", "hpf_1p":
		return FilterHighpass
	case "bpf_2p":
		return FilterBandpass
	case "notch_2p", "apf_1p":
		return FilterNotch
	default:
		return FilterLowpass
	}
}

func parseCrossfadeCurve(v string) CrossfadeCurve {
	if v == "power" {
		return CrossfadePower
	}
	return CrossfadeGain
}

// bandwidthToQ converts an SFZ eqN_bw (octaves) into the Q the biquad
// peaking-EQ formula expects.
func bandwidthToQ(bw float64) float64 {
	if bw <= 0 {
		bw = 1
	}
	return 1 / bw
}

// collectCrossfadeRanges gathers every "<loPrefix><cc>"/"<hiPrefix><cc>"
// pair present on a region into ordered CrossfadeRanges, one per CC number.
func collectCrossfadeRanges(s *SfzSection, loPrefix, hiPrefix string) []CrossfadeRange {
	ccs := map[int]bool{}
	scan := func(prefix string, section *SfzSection) {
		if section == nil {
			return
		}
		for opcode := range section.Opcodes {
			if strings.HasPrefix(opcode, prefix) {
				if cc, err := strconv.Atoi(opcode[len(prefix):]); err == nil {
					ccs[cc] = true
				}
			}
		}
	}
	scan(loPrefix, s)
	scan(loPrefix, s.ParentGroup)
	scan(loPrefix, s.GlobalRef)
	scan(hiPrefix, s)
	scan(hiPrefix, s.ParentGroup)
	scan(hiPrefix, s.GlobalRef)

	ordered := make([]int, 0, len(ccs))
	for cc := range ccs {
		ordered = append(ordered, cc)
	}
	sort.Ints(ordered)

	ranges := make([]CrossfadeRange, 0, len(ordered))
	for _, cc := range ordered {
		lo := s.GetInheritedFloatOpcode(fmt.Sprintf("%s%d", loPrefix, cc), 0) / 127
		hi := s.GetInheritedFloatOpcode(fmt.Sprintf("%s%d", hiPrefix, cc), 127) / 127
		ranges = append(ranges, CrossfadeRange{CC: cc, Lo: lo, Hi: hi})
	}
	return ranges
}
