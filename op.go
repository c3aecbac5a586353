// Copyright 2024 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tensordebug

import "strconv"

// Op identifies the operation that produced a tensor.
//
// OpNone is used for tensors that were not computed, like weights loaded
// from a file.
type Op uint8

const (
	OpNone Op = iota
	OpDup
	OpAdd
	OpAdd1
	OpAcc
	OpSub
	OpMul
	OpDiv
	OpSqr
	OpSqrt
	OpLog
	OpSum
	OpSumRows
	OpMean
	OpArgmax
	OpRepeat
	OpConcat
	OpNorm
	OpRMSNorm
	OpGroupNorm
	OpMulMat
	OpMulMatID
	OpOutProd
	OpScale
	OpSet
	OpCpy
	OpCont
	OpReshape
	OpView
	OpPermute
	OpTranspose
	OpGetRows
	OpDiag
	OpDiagMaskInf
	OpSoftMax
	OpRope
	OpClamp
	OpIm2Col
	OpPool2D
	OpUpscale
	OpPad
	OpArange
	OpArgsort
	OpFlashAttnExt
	OpUnary
	opCount
)

var opNames = [opCount]string{
	OpNone:         "NONE",
	OpDup:          "DUP",
	OpAdd:          "ADD",
	OpAdd1:         "ADD1",
	OpAcc:          "ACC",
	OpSub:          "SUB",
	OpMul:          "MUL",
	OpDiv:          "DIV",
	OpSqr:          "SQR",
	OpSqrt:         "SQRT",
	OpLog:          "LOG",
	OpSum:          "SUM",
	OpSumRows:      "SUM_ROWS",
	OpMean:         "MEAN",
	OpArgmax:       "ARGMAX",
	OpRepeat:       "REPEAT",
	OpConcat:       "CONCAT",
	OpNorm:         "NORM",
	OpRMSNorm:      "RMS_NORM",
	OpGroupNorm:    "GROUP_NORM",
	OpMulMat:       "MUL_MAT",
	OpMulMatID:     "MUL_MAT_ID",
	OpOutProd:      "OUT_PROD",
	OpScale:        "SCALE",
	OpSet:          "SET",
	OpCpy:          "CPY",
	OpCont:         "CONT",
	OpReshape:      "RESHAPE",
	OpView:         "VIEW",
	OpPermute:      "PERMUTE",
	OpTranspose:    "TRANSPOSE",
	OpGetRows:      "GET_ROWS",
	OpDiag:         "DIAG",
	OpDiagMaskInf:  "DIAG_MASK_INF",
	OpSoftMax:      "SOFT_MAX",
	OpRope:         "ROPE",
	OpClamp:        "CLAMP",
	OpIm2Col:       "IM2COL",
	OpPool2D:       "POOL_2D",
	OpUpscale:      "UPSCALE",
	OpPad:          "PAD",
	OpArange:       "ARANGE",
	OpArgsort:      "ARGSORT",
	OpFlashAttnExt: "FLASH_ATTN_EXT",
	OpUnary:        "UNARY",
}

// String returns the name of the operation.
func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}
