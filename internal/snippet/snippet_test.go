package snippet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skdltmxn/gothic-functions/signature"
)

var names = [signature.NumVersions]string{"G1", "G1A", "G2", "G2A"}

func parse(t *testing.T, version int, line string) *signature.Signature {
	t.Helper()
	p, err := signature.NewParser(version)
	if err != nil {
		t.Fatal(err)
	}
	sig, err := p.Build(line)
	if err != nil {
		t.Fatalf("Build(%q): %v", line, err)
	}
	return sig
}

func TestDeclaration(t *testing.T) {
	tests := []struct {
		typ, name, want string
	}{
		{"int", "a0", "int a0"},
		{"zCVob const*", "a1", "zCVob const* a1"},
		{"void(__cdecl*)(zCVob*, int)", "a0", "void(__cdecl* a0)(zCVob*, int)"},
		{"zCArray<zCVob*>const&", "a2", "zCArray<zCVob*>const& a2"},
		{"int(__stdcall*)(void*)", "result", "int(__stdcall* result)(void*)"},
	}

	for _, tt := range tests {
		if got := declaration(tt.typ, tt.name); got != tt.want {
			t.Errorf("declaration(%q, %q) = %q, want %q", tt.typ, tt.name, got, tt.want)
		}
	}
}

func TestMemberCode(t *testing.T) {
	sig := parse(t, 4, "0x00761900 public: class oCShrinkHelper * __thiscall zCCacheData<class oCNpc const *,class oCShrinkHelper>::GetData(class oCNpc const * const &)")
	s := New(sig, names)

	want := "// WARNING!!! Supported versions: G2A\n" +
		"struct zCCacheData_oCNpc_const___oCShrinkHelper__GetData : zCCacheData<oCNpc const*, oCShrinkHelper> { oCShrinkHelper* operator()(oCNpc const* const&); };\n" +
		"BindedHook Ivk_zCCacheData_oCNpc_const___oCShrinkHelper__GetData{ ZENFOR(0x00000000, 0x00000000, 0x00000000, 0x00761900), &zCCacheData_oCNpc_const___oCShrinkHelper__GetData::operator() };\n" +
		"oCShrinkHelper* zCCacheData_oCNpc_const___oCShrinkHelper__GetData::operator()(oCNpc const* const& a0)\n" +
		"{\n" +
		"\toCShrinkHelper* result = THISCALL(Ivk_zCCacheData_oCNpc_const___oCShrinkHelper__GetData)(a0);\n" +
		"\treturn result;\n" +
		"}\n"
	if got := s.Code(); got != want {
		t.Errorf("Code mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestStaticCode(t *testing.T) {
	sig := parse(t, 1, "0x0076FD00 public: static void __cdecl oCWorld::operator delete(void *)")
	for i := 1; i < signature.NumVersions; i++ {
		sig.Addresses[i] = "0x00000001"
	}
	s := New(sig, names)

	want := "void Hook_oCWorld_operator_delete(void*);\n" +
		"BindedHook Ivk_oCWorld_operator_delete{ ZENFOR(0x0076FD00, 0x00000001, 0x00000001, 0x00000001), Hook_oCWorld_operator_delete };\n" +
		"void Hook_oCWorld_operator_delete(void* a0)\n" +
		"{\n" +
		"\tIvk_oCWorld_operator_delete(a0);\n" +
		"}\n"
	if got := s.Code(); got != want {
		t.Errorf("Code mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestConstructorDestructor(t *testing.T) {
	ctor := New(parse(t, 2, "0x00401000 public: __thiscall zCVob::zCVob(void)"), names)
	if got := ctor.returnType(); got != "zCVob*" {
		t.Errorf("constructor return type = %q", got)
	}

	dtor := New(parse(t, 2, "0x00401100 public: virtual __thiscall zCVob::~zCVob(void)"), names)
	if got := dtor.returnType(); got != "void" {
		t.Errorf("destructor return type = %q", got)
	}
	if got := dtor.structName(); got != "zCVob_Destructor" {
		t.Errorf("destructor struct name = %q", got)
	}
	if !strings.Contains(dtor.Code(), "\tTHISCALL(Ivk_zCVob_Destructor)();\n") {
		t.Errorf("unexpected destructor body:\n%s", dtor.Code())
	}
}

func TestFreeFunctionConvention(t *testing.T) {
	s := New(parse(t, 3, "0x00401000 int __stdcall WinMain(HINSTANCE__*,HINSTANCE__*,char*,int)"), names)
	code := s.Code()
	if !strings.HasPrefix(code, "// WARNING!!! Supported versions: G2\nint __stdcall Hook_WinMain(HINSTANCE__*, HINSTANCE__*, char*, int);\n") {
		t.Errorf("unexpected code:\n%s", code)
	}
}

func TestTitleShortcut(t *testing.T) {
	sig := parse(t, 4, "0x004022C0 private: virtual class zCClassDef * __thiscall oCCSManager::_GetClassDef(void)const ")
	s := New(sig, names)

	if got := s.Title(); got != "oCCSManager::_GetClassDef(): zCClassDef* [const]" {
		t.Errorf("Title = %q", got)
	}
	if got := s.Shortcut(); got != "__oCCSManager__GetClassDef_0x004022C0" {
		t.Errorf("Shortcut = %q", got)
	}
	if got := s.Description(); got != sig.Short {
		t.Errorf("Description = %q", got)
	}

	sig.Class = strings.Repeat("A", 80)
	if got := s.Shortcut(); len(got) != maxShortcutName+len("_0x004022C0") {
		t.Errorf("expected truncated shortcut, got %q", got)
	}
}

func TestRenderWriteAll(t *testing.T) {
	sig := parse(t, 1, "0x00401000 public: int __thiscall zCVob::GetID(void)")
	tmpl := "{Title}|{Shortcut}|{Description}"

	got := New(sig, names).Render(tmpl)
	if got != "zCVob::GetID(): int|__zCVob_GetID_0x00401000|public: int __thiscall zCVob::GetID()" {
		t.Errorf("Render = %q", got)
	}

	dir := t.TempDir()
	if err := WriteAll(dir, DefaultTemplate, names, []*signature.Signature{sig}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "__zCVob_GetID_0x00401000.snippet"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<Shortcut>__zCVob_GetID_0x00401000</Shortcut>") {
		t.Errorf("snippet file missing shortcut:\n%s", data)
	}
}
