package registry

import (
	"testing"

	"github.com/anirudhraja/protodyn/schema"
)

const userProto = `
syntax = "proto3";

package app;

enum Status {
  STATUS_UNKNOWN = 0;
  STATUS_ACTIVE = 1;
  STATUS_DISABLED = 2;
}

message Address {
  string street = 1;
  string city = 2;
}

message User {
  int32 id = 1;
  string user_name = 2;
  Status status = 3;
  Address address = 4;
  repeated int32 scores = 5;
  repeated int32 loose_scores = 6 [packed = false];
  repeated string tags = 7;
  int64 balance = 8 [jstype = JS_STRING];
  map<string, int64> ledger = 9;
  oneof contact {
    string email = 10;
    string phone = 11;
  }
  User manager = 12;
}
`

func loadUserSchema(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	if err := r.LoadSchemaFromString("user.proto", userProto); err != nil {
		t.Fatalf("LoadSchemaFromString: %v", err)
	}
	return r
}

func TestRegistryRegistersQualifiedNames(t *testing.T) {
	r := loadUserSchema(t)

	for _, name := range []string{"app.User", "app.Address"} {
		if _, err := r.GetMessage(name); err != nil {
			t.Errorf("GetMessage(%s): %v", name, err)
		}
	}
	// Bare names resolve through suffix matching.
	if _, err := r.GetMessage("User"); err != nil {
		t.Errorf("GetMessage(User): %v", err)
	}
	if _, err := r.GetEnum("Status"); err != nil {
		t.Errorf("GetEnum(Status): %v", err)
	}
	if _, err := r.GetMessage("NoSuchType"); err == nil {
		t.Error("GetMessage(NoSuchType) succeeded, want error")
	}
}

func TestRegistryFieldDescriptors(t *testing.T) {
	r := loadUserSchema(t)
	user, err := r.GetMessage("app.User")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}

	cases := []struct {
		number int32
		check  func(t *testing.T, f *schema.FieldInfo)
	}{
		{1, func(t *testing.T, f *schema.FieldInfo) {
			if f.Kind != schema.KindScalar || f.Scalar != schema.TypeInt32 || f.LocalName != "id" {
				t.Errorf("id descriptor = %+v", f)
			}
		}},
		{2, func(t *testing.T, f *schema.FieldInfo) {
			if f.LocalName != "userName" {
				t.Errorf("LocalName = %q, want userName", f.LocalName)
			}
		}},
		{3, func(t *testing.T, f *schema.FieldInfo) {
			if f.Kind != schema.KindEnum || f.Enum == nil || f.Enum.TypeName != "app.Status" {
				t.Errorf("status descriptor = %+v", f)
			}
			if got := f.Enum.NameByNumber(1); got != "STATUS_ACTIVE" {
				t.Errorf("NameByNumber(1) = %q", got)
			}
		}},
		{4, func(t *testing.T, f *schema.FieldInfo) {
			if f.Kind != schema.KindMessage {
				t.Fatalf("address kind = %v", f.Kind)
			}
			if info := f.Message(); info == nil || info.TypeName != "app.Address" {
				t.Errorf("address resolves to %+v", info)
			}
		}},
		{5, func(t *testing.T, f *schema.FieldInfo) {
			if f.Repeat != schema.RepeatPacked {
				t.Errorf("scores repeat = %v, want packed (proto3 default)", f.Repeat)
			}
		}},
		{6, func(t *testing.T, f *schema.FieldInfo) {
			if f.Repeat != schema.RepeatUnpacked {
				t.Errorf("loose_scores repeat = %v, want unpacked", f.Repeat)
			}
		}},
		{7, func(t *testing.T, f *schema.FieldInfo) {
			if f.Repeat != schema.RepeatUnpacked {
				t.Errorf("tags repeat = %v, want unpacked (strings never pack)", f.Repeat)
			}
		}},
		{8, func(t *testing.T, f *schema.FieldInfo) {
			if f.Long != schema.LongString {
				t.Errorf("balance long type = %v, want LongString via jstype", f.Long)
			}
		}},
		{9, func(t *testing.T, f *schema.FieldInfo) {
			if f.Kind != schema.KindMap || f.Key != schema.TypeString {
				t.Fatalf("ledger descriptor = %+v", f)
			}
			if f.Value.Kind != schema.KindScalar || f.Value.Scalar != schema.TypeInt64 {
				t.Errorf("ledger value = %+v", f.Value)
			}
		}},
		{10, func(t *testing.T, f *schema.FieldInfo) {
			if f.Oneof != "contact" {
				t.Errorf("email oneof = %q, want contact", f.Oneof)
			}
		}},
		{11, func(t *testing.T, f *schema.FieldInfo) {
			if f.Oneof != "contact" {
				t.Errorf("phone oneof = %q, want contact", f.Oneof)
			}
		}},
		{12, func(t *testing.T, f *schema.FieldInfo) {
			// Self-reference resolves through the lazy thunk.
			if info := f.Message(); info != user {
				t.Errorf("manager resolves to %+v, want User itself", info)
			}
		}},
	}

	for _, tc := range cases {
		f := user.FieldByNumber(tc.number)
		if f == nil {
			t.Errorf("field %d missing", tc.number)
			continue
		}
		tc.check(t, f)
	}
}

func TestRegistryNestedTypes(t *testing.T) {
	const src = `
syntax = "proto3";
package deep;

message Outer {
  message Inner {
    enum Kind {
      KIND_UNSET = 0;
      KIND_SET = 1;
    }
    Kind kind = 1;
  }
  Inner inner = 1;
}
`
	r := NewRegistry()
	if err := r.LoadSchemaFromString("deep.proto", src); err != nil {
		t.Fatalf("LoadSchemaFromString: %v", err)
	}

	outer, err := r.GetMessage("deep.Outer")
	if err != nil {
		t.Fatalf("GetMessage(deep.Outer): %v", err)
	}
	inner := outer.FieldByNumber(1)
	if inner == nil || inner.Kind != schema.KindMessage {
		t.Fatalf("inner field = %+v", inner)
	}
	info := inner.Message()
	if info == nil || info.TypeName != "deep.Outer.Inner" {
		t.Fatalf("inner resolves to %+v", info)
	}
	kind := info.FieldByNumber(1)
	if kind == nil || kind.Kind != schema.KindEnum || kind.Enum.TypeName != "deep.Outer.Inner.Kind" {
		t.Errorf("kind field = %+v", kind)
	}
}

func TestRegistryUnresolvedTypeFails(t *testing.T) {
	const src = `
syntax = "proto3";
message Broken {
  Missing ref = 1;
}
`
	r := NewRegistry()
	if err := r.LoadSchemaFromString("broken.proto", src); err == nil {
		t.Error("unresolved reference accepted, want error")
	}
}

func TestRegistryDefaultLongType(t *testing.T) {
	const src = `
syntax = "proto3";
message Nums {
  int64 plain = 1;
}
`
	r := NewRegistry()
	r.SetDefaultLongType(schema.LongNumber)
	if err := r.LoadSchemaFromString("nums.proto", src); err != nil {
		t.Fatalf("LoadSchemaFromString: %v", err)
	}
	msg, err := r.GetMessage("Nums")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if f := msg.FieldByNumber(1); f.Long != schema.LongNumber {
		t.Errorf("plain long type = %v, want LongNumber default", f.Long)
	}
}

func TestRegistryManualRegistration(t *testing.T) {
	r := NewRegistry()
	r.Register(&schema.MessageInfo{TypeName: "hand.Built"})
	if _, err := r.GetMessage("hand.Built"); err != nil {
		t.Errorf("GetMessage(hand.Built): %v", err)
	}
	if got := len(r.ListMessages()); got != 1 {
		t.Errorf("ListMessages len = %d", got)
	}
}
