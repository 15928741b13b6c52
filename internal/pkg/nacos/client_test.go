package nacos

import "testing"

func TestParseServerConfigs(t *testing.T) {
	cfgs, err := ParseServerConfigs("10.0.0.1:8848, 10.0.0.2:8849")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfgs) != 2 {
		t.Fatalf("len: want=2 got=%d", len(cfgs))
	}
	if cfgs[1].IpAddr != "10.0.0.2" || cfgs[1].Port != 8849 {
		t.Fatalf("second: want=10.0.0.2:8849 got=%s:%d", cfgs[1].IpAddr, cfgs[1].Port)
	}

	for _, bad := range []string{"nacos", "host:port", ":8848"} {
		if _, err := ParseServerConfigs(bad); err == nil {
			t.Fatalf("%q: want error got nil", bad)
		}
	}
}
