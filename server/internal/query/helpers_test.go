package query

import (
	"fmt"
	"time"

	"github.com/netviz/netviz/pkg/types"
)

func snapshotOf(nets ...types.Network) *types.Snapshot {
	return types.NewSnapshot(nets, "test", time.Now())
}

// numbered returns n networks named net-0..net-(n-1) with distinct ASNs.
func numbered(n int) *types.Snapshot {
	nets := make([]types.Network, n)
	for i := range nets {
		nets[i] = types.Network{ID: int64(i + 1), Name: fmt.Sprintf("net-%d", i), ASN: int64(100000 + i)}
	}
	return snapshotOf(nets...)
}

func google() types.Network {
	return types.Network{
		ID:            1,
		Name:          "Google",
		ASN:           15169,
		Aka:           types.String("Google LLC"),
		Status:        types.String("ok"),
		InfoType:      types.String("Content"),
		PolicyGeneral: types.String("Selective"),
		InfoScope:     types.String("Global"),
		InfoPrefixes4: types.Int(1500),
		InfoPrefixes6: types.Int(200),
		IXCount:       types.Int(180),
		FacCount:      types.Int(120),
	}
}

func cloudflare() types.Network {
	return types.Network{
		ID:            2,
		Name:          "Cloudflare",
		ASN:           13335,
		Aka:           types.String("CF"),
		Status:        types.String("ok"),
		InfoType:      types.String("Content"),
		PolicyGeneral: types.String("Open"),
		InfoScope:     types.String("Global"),
		InfoPrefixes4: types.Int(2000),
		IXCount:       types.Int(300),
	}
}

func isp() types.Network {
	return types.Network{
		ID:            3,
		Name:          "Example Broadband",
		ASN:           64500,
		Status:        types.String("ok"),
		InfoType:      types.String("Cable/DSL/ISP"),
		PolicyGeneral: types.String("Open"),
		InfoPrefixes4: types.Int(40),
		InfoPrefixes6: types.Int(4),
		IXCount:       types.Int(2),
		FacCount:      types.Int(3),
	}
}

func bare() types.Network {
	return types.Network{ID: 4, Name: "Bare Networks", ASN: 65001}
}

func names(nets []types.Network) []string {
	out := make([]string, len(nets))
	for i, n := range nets {
		out[i] = n.Name
	}
	return out
}
