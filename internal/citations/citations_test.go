package citations

import (
	"reflect"
	"testing"
)

func TestExtractCFR(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []CFRCitation
	}{
		{
			name: "full form with section symbol",
			text: "as required by 29 C.F.R. § 1910.147 for lockout procedures",
			want: []CFRCitation{{Title: "29", Section: "1910.147", FullCitation: "29 CFR 1910.147"}},
		},
		{
			name: "abbreviated form without periods",
			text: "see 40 CFR 261 and the implementing regulations",
			want: []CFRCitation{{Title: "40", Section: "261", FullCitation: "40 CFR 261"}},
		},
		{
			name: "part form",
			text: "subject to 40 C.F.R. Part 261 standards",
			want: []CFRCitation{{Title: "40", Section: "261", FullCitation: "40 CFR 261"}},
		},
		{
			name: "lowercase variant",
			text: "see 29 c.f.r. 1910.147",
			want: []CFRCitation{{Title: "29", Section: "1910.147", FullCitation: "29 CFR 1910.147"}},
		},
		{
			name: "duplicates collapse",
			text: "29 C.F.R. § 1910.147 ... again 29 CFR 1910.147",
			want: []CFRCitation{{Title: "29", Section: "1910.147", FullCitation: "29 CFR 1910.147"}},
		},
		{
			name: "no citations",
			text: "the regulations are silent on this point",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCFR(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCFR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractUSC(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []USCCitation
	}{
		{
			name: "simple section",
			text: "a claim under 42 U.S.C. § 1983 against the officers",
			want: []USCCitation{{Title: "42", Section: "1983", FullCitation: "42 U.S.C. § 1983"}},
		},
		{
			name: "nested subsections",
			text: "convicted under 18 U.S.C. § 924(c)(1) for the firearm",
			want: []USCCitation{{Title: "18", Section: "924(c)(1)", FullCitation: "18 U.S.C. § 924(c)(1)"}},
		},
		{
			name: "no periods variant",
			text: "8 USC 1182 governs inadmissibility",
			want: []USCCitation{{Title: "8", Section: "1182", FullCitation: "8 U.S.C. § 1182"}},
		},
		{
			name: "multiple in order",
			text: "both 42 U.S.C. § 1983 and 28 U.S.C. § 1291 apply",
			want: []USCCitation{
				{Title: "42", Section: "1983", FullCitation: "42 U.S.C. § 1983"},
				{Title: "28", Section: "1291", FullCitation: "28 U.S.C. § 1291"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractUSC(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractUSC() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractConstitution(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []ConstitutionCitation
	}{
		{
			name: "article with section and clause",
			text: "Congress may act under U.S. Const. art. I, § 8, cl. 3",
			want: []ConstitutionCitation{{
				Kind: KindArticle, Number: "I", Section: "8", Clause: "3",
				FullCitation: "U.S. Const. art. I, § 8, cl. 3",
			}},
		},
		{
			name: "amendment with section",
			text: "the Equal Protection Clause, U.S. Const. amend. XIV, § 1",
			want: []ConstitutionCitation{{
				Kind: KindAmendment, Number: "XIV", Section: "1",
				FullCitation: "U.S. Const. amend. XIV, § 1",
			}},
		},
		{
			name: "spelled out amendment",
			text: "The First Amendment forbids such restraints on speech.",
			want: []ConstitutionCitation{{
				Kind: KindAmendment, Number: "I",
				FullCitation: "U.S. Const. amend. I",
			}},
		},
		{
			name: "spelled out hyphenated amendment",
			text: "ratification of the Twenty-First Amendment ended Prohibition",
			want: []ConstitutionCitation{{
				Kind: KindAmendment, Number: "XXI",
				FullCitation: "U.S. Const. amend. XXI",
			}},
		},
		{
			name: "abbreviated and spelled forms dedupe",
			text: "U.S. Const. amend. IV and the Fourth Amendment protect privacy",
			want: []ConstitutionCitation{{
				Kind: KindAmendment, Number: "IV",
				FullCitation: "U.S. Const. amend. IV",
			}},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractConstitution(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractConstitution() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormattersMirrorParsers(t *testing.T) {
	text := "Under 42 U.S.C. § 1983, 29 C.F.R. § 1910.147, and U.S. Const. amend. XIV, § 1."

	for _, c := range ExtractUSC(text) {
		if FormatUSC(c) != c.FullCitation {
			t.Errorf("FormatUSC(%v) = %q, want %q", c, FormatUSC(c), c.FullCitation)
		}
	}
	for _, c := range ExtractCFR(text) {
		if FormatCFR(c) != c.FullCitation {
			t.Errorf("FormatCFR(%v) = %q, want %q", c, FormatCFR(c), c.FullCitation)
		}
	}
	for _, c := range ExtractConstitution(text) {
		if FormatConstitution(c) != c.FullCitation {
			t.Errorf("FormatConstitution(%v) = %q, want %q", c, FormatConstitution(c), c.FullCitation)
		}
	}
}

func TestExtractAllStrings(t *testing.T) {
	text := "Under 42 U.S.C. § 1983 and 29 C.F.R. § 1910.147, the Fourth Amendment claim proceeds."
	cfr, usc, constitution := ExtractAllStrings(text)

	if !reflect.DeepEqual(usc, []string{"42 U.S.C. § 1983"}) {
		t.Errorf("usc = %v", usc)
	}
	if !reflect.DeepEqual(cfr, []string{"29 CFR 1910.147"}) {
		t.Errorf("cfr = %v", cfr)
	}
	if !reflect.DeepEqual(constitution, []string{"U.S. Const. amend. IV"}) {
		t.Errorf("constitution = %v", constitution)
	}
}

func TestBuildBluebookCitation(t *testing.T) {
	tests := []struct {
		name      string
		cites     []ClusterCitation
		dateFiled string
		want      string
	}{
		{
			name: "primary citation",
			cites: []ClusterCitation{
				{Type: 1, Volume: "601", Reporter: "U.S.", Page: "416"},
			},
			dateFiled: "2024-05-16",
			want:      "601 U.S. 416 (2024)",
		},
		{
			name: "primary preferred over parallel",
			cites: []ClusterCitation{
				{Type: 3, Volume: "144", Reporter: "S. Ct.", Page: "1153"},
				{Type: 1, Volume: "601", Reporter: "U.S.", Page: "416"},
			},
			dateFiled: "2024-05-16",
			want:      "601 U.S. 416 (2024)",
		},
		{
			name: "fallback to first when no primary",
			cites: []ClusterCitation{
				{Type: 3, Volume: "144", Reporter: "S. Ct.", Page: "1153"},
			},
			dateFiled: "2024-05-16",
			want:      "144 S. Ct. 1153 (2024)",
		},
		{
			name:      "no citations",
			cites:     nil,
			dateFiled: "2024-05-16",
			want:      "",
		},
		{
			name: "missing page",
			cites: []ClusterCitation{
				{Type: 1, Volume: "601", Reporter: "U.S."},
			},
			dateFiled: "2024-05-16",
			want:      "",
		},
		{
			name: "missing date",
			cites: []ClusterCitation{
				{Type: 1, Volume: "410", Reporter: "U.S.", Page: "113"},
			},
			dateFiled: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildBluebookCitation(tt.cites, tt.dateFiled)
			if got != tt.want {
				t.Errorf("BuildBluebookCitation() = %q, want %q", got, tt.want)
			}
		})
	}
}
