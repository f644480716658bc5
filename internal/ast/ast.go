// Package ast defines the Cb AST model: a single tagged Node type over a
// closed Kind enum (spec.md §4.A). The surface lexer/parser that builds
// these nodes from source text is an external collaborator (spec.md §1);
// this package only fixes the contract the core evaluator consumes.
package ast

import "cb/internal/types"

// Kind is the exhaustive node-tag enumeration. No open set: every
// evaluator/executor dispatch is expected to handle every Kind.
type Kind int

const (
	Number Kind = iota
	StringLiteral
	NullPtr
	Variable
	ArrayRef
	ArrayLiteral
	StructLiteral
	BinaryOp
	UnaryOp
	TernaryOp
	Assign
	VarDecl
	StructDecl
	StructTypedefDecl
	InterfaceDecl
	ImplDecl
	EnumDecl
	UnionDecl
	TypedefDecl
	FuncDecl
	ParamDecl
	FuncCall
	MemberAccess
	MemberArrayAccess
	ArrowAccess
	EnumAccess
	If
	While
	For
	Return
	Break
	Continue
	Assert
	StmtList
	PrintStmt
	PrintlnStmt
	PrintfStmt
	NewExpr
	DeleteExpr
	SizeofExpr
	TypeSpec
	StorageSpec
	PreprocessorDirective
)

var kindNames = map[Kind]string{
	Number: "Number", StringLiteral: "StringLiteral", NullPtr: "NullPtr",
	Variable: "Variable", ArrayRef: "ArrayRef", ArrayLiteral: "ArrayLiteral",
	StructLiteral: "StructLiteral", BinaryOp: "BinaryOp", UnaryOp: "UnaryOp",
	TernaryOp: "TernaryOp", Assign: "Assign", VarDecl: "VarDecl",
	StructDecl: "StructDecl", StructTypedefDecl: "StructTypedefDecl",
	InterfaceDecl: "InterfaceDecl", ImplDecl: "ImplDecl", EnumDecl: "EnumDecl",
	UnionDecl: "UnionDecl",
	TypedefDecl: "TypedefDecl", FuncDecl: "FuncDecl", ParamDecl: "ParamDecl",
	FuncCall: "FuncCall", MemberAccess: "MemberAccess",
	MemberArrayAccess: "MemberArrayAccess", ArrowAccess: "ArrowAccess",
	EnumAccess: "EnumAccess", If: "If", While: "While", For: "For",
	Return: "Return", Break: "Break", Continue: "Continue", Assert: "Assert",
	StmtList: "StmtList", PrintStmt: "PrintStmt", PrintlnStmt: "PrintlnStmt",
	PrintfStmt: "PrintfStmt", NewExpr: "NewExpr", DeleteExpr: "DeleteExpr",
	SizeofExpr: "SizeofExpr", TypeSpec: "TypeSpec", StorageSpec: "StorageSpec",
	PreprocessorDirective: "PreprocessorDirective",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Node is the single tagged-sum AST record (spec.md §4.A): children,
// a positional argument list, scalar payloads, a type hint, and flags.
// Every field not relevant to a given Kind is simply left zero.
type Node struct {
	Kind Kind

	Left  *Node
	Right *Node
	Third *Node

	Arguments []*Node
	InitExpr  *Node

	// ArrayIndex holds one expression per dimension for ArrayRef /
	// MemberArrayAccess, in declaration order.
	ArrayIndex []*Node

	IntValue int64
	StrValue string
	Op       string
	Name     string
	TypeName string

	TypeInfo     types.TypeInfo
	ArrayType    *types.ArrayTypeInfo
	PointerDepth int

	IsConst           bool
	IsStatic          bool
	IsImplStatic      bool // VarDecl: a `static` declaration inside an impl method body
	IsUnsigned        bool
	IsPointer         bool
	IsFunctionAddress bool
	IsArrayNew        bool
	NewArraySize      *Node
	IsReference       bool // VarDecl/ParamDecl: reference ("T& x") binding
	IsPostfix         bool // UnaryOp ++/--: postfix vs prefix
	IsPrivate         bool // struct field: private member

	EnumName string // EnumAccess: the enum type name
	Variant  string // EnumAccess: the variant name

	Line   int
	Column int
}
