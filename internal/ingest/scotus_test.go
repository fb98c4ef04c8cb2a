package ingest

import (
	"testing"

	"govreporter/internal/apis"
)

func TestBluebookCitation(t *testing.T) {
	cluster := &apis.Cluster{
		DateFiled: "2024-03-15",
		Citations: []apis.ClusterCitation{
			{Type: 1, Volume: 601, Reporter: "U.S.", Page: "416"},
		},
	}
	if got := bluebookCitation(cluster); got != "601 U.S. 416 (2024)" {
		t.Errorf("citation = %q, want 601 U.S. 416 (2024)", got)
	}
}

func TestBluebookCitationUnassignedVolume(t *testing.T) {
	// Recent opinions carry volume 0 until the bound reporter assigns one.
	cluster := &apis.Cluster{
		DateFiled: "2024-03-15",
		Citations: []apis.ClusterCitation{
			{Type: 1, Volume: 0, Reporter: "U.S.", Page: "416"},
		},
	}
	if got := bluebookCitation(cluster); got != "" {
		t.Errorf("unassigned volume produced citation %q", got)
	}
}

func TestBluebookCitationNoCitations(t *testing.T) {
	cluster := &apis.Cluster{DateFiled: "2024-03-15"}
	if got := bluebookCitation(cluster); got != "" {
		t.Errorf("empty citation list produced %q", got)
	}
}
