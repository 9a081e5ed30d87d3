package constraint

import (
	"net"
	"testing"
	"time"

	"github.com/nyxflag/flagsdk/internal/evalctx"
)

func TestInNotIn(t *testing.T) {
	c := Constraint{ContextName: "userId", Operator: OpIn, Values: []string{"alice", "bob"}}
	p := Compile(c)
	if !p(&evalctx.Context{UserID: "alice"}) {
		t.Fatal("expected alice to be IN")
	}
	if p(&evalctx.Context{UserID: "eve"}) {
		t.Fatal("expected eve to not be IN")
	}

	notIn := Compile(Constraint{ContextName: "userId", Operator: OpNotIn})
	if !notIn(&evalctx.Context{UserID: "anyone"}) {
		t.Fatal("empty NOT_IN must yield true")
	}
	if !notIn(&evalctx.Context{}) {
		t.Fatal("empty NOT_IN must yield true even with no userId")
	}
}

func TestRemoteAddressCIDR(t *testing.T) {
	p := Compile(Constraint{ContextName: "remoteAddress", Operator: OpIn, Values: []string{"10.0.0.0/8", "2.3.4.5"}})
	if !p(&evalctx.Context{RemoteAddress: net.ParseIP("10.20.30.40")}) {
		t.Fatal("expected CIDR match")
	}
	if p(&evalctx.Context{RemoteAddress: net.ParseIP("1.2.3.4")}) {
		t.Fatal("expected no match outside range")
	}
}

func TestStrContainsCaseInsensitive(t *testing.T) {
	p := Compile(Constraint{ContextName: "appName", Operator: OpStrContains, CaseInsensitive: true, Values: []string{"PROD"}})
	if !p(&evalctx.Context{AppName: "my-prod-app"}) {
		t.Fatal("expected case-insensitive contains match")
	}
}

func TestNumComparisons(t *testing.T) {
	p := Compile(Constraint{ContextName: "score", Operator: OpNumGte, Value: "10"})
	if !p(&evalctx.Context{Properties: map[string]string{"score": "10"}}) {
		t.Fatal("expected 10 >= 10")
	}
	if p(&evalctx.Context{Properties: map[string]string{"score": "bogus"}}) {
		t.Fatal("parse failure must be false")
	}
}

func TestSemverComparisons(t *testing.T) {
	p := Compile(Constraint{ContextName: "appVersion", Operator: OpSemverGt, Value: "1.2.0"})
	if !p(&evalctx.Context{Properties: map[string]string{"appVersion": "1.3.0"}}) {
		t.Fatal("expected 1.3.0 > 1.2.0")
	}
	if p(&evalctx.Context{Properties: map[string]string{"appVersion": "1.1.0"}}) {
		t.Fatal("expected 1.1.0 not > 1.2.0")
	}
}

func TestDateComparisons(t *testing.T) {
	p := Compile(Constraint{ContextName: "currentTime", Operator: OpDateAfter, Value: "2020-01-01T00:00:00Z"})
	ctx := &evalctx.Context{CurrentTime: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}
	if !p(ctx) {
		t.Fatal("expected 2021 to be after 2020")
	}
}

func TestUnknownOperatorIsAlwaysFalse(t *testing.T) {
	p := Compile(Constraint{ContextName: "userId", Operator: "BOGUS_OP", Values: []string{"x"}})
	if p(&evalctx.Context{UserID: "x"}) {
		t.Fatal("unknown operator must compile to constant false")
	}
}

// Inversion property: evaluate(invert(C), X) == !evaluate(C, X).
func TestInversionProperty(t *testing.T) {
	cases := []Constraint{
		{ContextName: "userId", Operator: OpIn, Values: []string{"alice"}},
		{ContextName: "score", Operator: OpNumGt, Value: "5"},
		{ContextName: "userId", Operator: "BOGUS", Values: []string{"x"}},
	}
	ctx := &evalctx.Context{UserID: "alice", Properties: map[string]string{"score": "10"}}
	for _, c := range cases {
		plain := Compile(c)(ctx)
		inverted := c
		inverted.Inverted = !c.Inverted
		invResult := Compile(inverted)(ctx)
		if invResult == plain {
			t.Fatalf("inversion property failed for %+v: plain=%v inverted=%v", c, plain, invResult)
		}
	}
}

func TestUnmarshalScalarValue(t *testing.T) {
	var c Constraint
	if err := c.UnmarshalJSON([]byte(`{"contextName":"score","operator":"NUM_EQ","value":42}`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Value != "42" {
		t.Fatalf("Value = %q, want 42", c.Value)
	}
}
