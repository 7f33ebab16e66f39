package quant

// Representable values of each low-bit format, sorted ascending. Any change
// here shifts every error measurement downstream, so the tables must stay
// bit-exact with the formats they model.
//
// The "er" (extended range) variants add one extra magnitude on the positive
// or negative side, the "ea" (extended accuracy) variants add a larger outlier
// value instead. flint is the log-like integer/float hybrid.
var (
	int3Values = []float64{
		-3, -2, -1, 0, 1, 2, 3,
	}
	fp3Values = []float64{
		-4, -2, -1, 0, 1, 2, 4,
	}
	fp3ERPosValues = []float64{
		-4, -2, -1, 0, 1, 2, 3, 4,
	}
	fp3ERNegValues = []float64{
		-4, -3, -2, -1, 0, 1, 2, 4,
	}
	fp3EAPosValues = []float64{
		-4, -2, -1, 0, 1, 2, 4, 6,
	}
	fp3EANegValues = []float64{
		-6, -4, -2, -1, 0, 1, 2, 4,
	}
	int4Values = []float64{
		-7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7,
	}
	flint4Values = []float64{
		-16, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 16,
	}
	fp4E2M1Values = []float64{
		-12, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 12,
	}
	fp4ERPosValues = []float64{
		-12, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 10, 12,
	}
	fp4ERNegValues = []float64{
		-12, -10, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 12,
	}
	fp4EAPosValues = []float64{
		-12, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 12, 16,
	}
	fp4EANegValues = []float64{
		-16, -12, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 12,
	}
	int5Values = []float64{
		-15, -14, -13, -12, -11, -10, -9, -8, -7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9,
		10, 11, 12, 13, 14, 15,
	}
	flint5Values = []float64{
		-64, -32, -24, -16, -14, -12, -10, -8, -7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
		12, 14, 16, 24, 32, 64,
	}
	fp5E2M2Values = []float64{
		-28, -24, -20, -16, -14, -12, -10, -8, -7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 10,
		12, 14, 16, 20, 24, 28,
	}
	fp5E3M1Values = []float64{
		-192, -128, -96, -64, -48, -32, -24, -16, -12, -8, -6, -4, -3, -2, -1, 0, 1, 2, 3, 4, 6, 8, 12,
		16, 24, 32, 48, 64, 96, 128, 192,
	}
	int6Values = []float64{
		-31, -30, -29, -28, -27, -26, -25, -24, -23, -22, -21, -20, -19, -18, -17, -16, -15, -14, -13,
		-12, -11, -10, -9, -8, -7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13,
		14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
	}
	fp6E2M3Values = []float64{
		-60, -56, -52, -48, -44, -40, -36, -32, -30, -28, -26, -24, -22, -20, -18, -16, -15, -14, -13,
		-12, -11, -10, -9, -8, -7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13,
		14, 15, 16, 18, 20, 22, 24, 26, 28, 30, 32, 36, 40, 44, 48, 52, 56, 60,
	}
	fp6E3M2Values = []float64{
		-448, -384, -320, -256, -224, -192, -160, -128, -112, -96, -80, -64, -56, -48, -40, -32, -28,
		-24, -20, -16, -14, -12, -10, -8, -7, -6, -5, -4, -3, -2, -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12,
		14, 16, 20, 24, 28, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 448,
	}
	fp8E2M5Values = []float64{
		-7.875, -7.75, -7.625, -7.5, -7.375, -7.25, -7.125, -7, -6.875, -6.75, -6.625, -6.5, -6.375,
		-6.25, -6.125, -6, -5.875, -5.75, -5.625, -5.5, -5.375, -5.25, -5.125, -5, -4.875, -4.75, -4.625,
		-4.5, -4.375, -4.25, -4.125, -4, -3.9375, -3.875, -3.8125, -3.75, -3.6875, -3.625, -3.5625, -3.5,
		-3.4375, -3.375, -3.3125, -3.25, -3.1875, -3.125, -3.0625, -3, -2.9375, -2.875, -2.8125, -2.75,
		-2.6875, -2.625, -2.5625, -2.5, -2.4375, -2.375, -2.3125, -2.25, -2.1875, -2.125, -2.0625, -2,
		-1.96875, -1.9375, -1.90625, -1.875, -1.84375, -1.8125, -1.78125, -1.75, -1.71875, -1.6875,
		-1.65625, -1.625, -1.59375, -1.5625, -1.53125, -1.5, -1.46875, -1.4375, -1.40625, -1.375,
		-1.34375, -1.3125, -1.28125, -1.25, -1.21875, -1.1875, -1.15625, -1.125, -1.09375, -1.0625,
		-1.03125, -1, -0.984375, -0.96875, -0.953125, -0.9375, -0.921875, -0.90625, -0.890625, -0.875,
		-0.859375, -0.84375, -0.828125, -0.8125, -0.796875, -0.78125, -0.765625, -0.75, -0.734375,
		-0.71875, -0.703125, -0.6875, -0.671875, -0.65625, -0.640625, -0.625, -0.609375, -0.59375,
		-0.578125, -0.5625, -0.546875, -0.53125, -0.515625, 0, 0.515625, 0.53125, 0.546875, 0.5625,
		0.578125, 0.59375, 0.609375, 0.625, 0.640625, 0.65625, 0.671875, 0.6875, 0.703125, 0.71875,
		0.734375, 0.75, 0.765625, 0.78125, 0.796875, 0.8125, 0.828125, 0.84375, 0.859375, 0.875,
		0.890625, 0.90625, 0.921875, 0.9375, 0.953125, 0.96875, 0.984375, 1, 1.03125, 1.0625, 1.09375,
		1.125, 1.15625, 1.1875, 1.21875, 1.25, 1.28125, 1.3125, 1.34375, 1.375, 1.40625, 1.4375, 1.46875,
		1.5, 1.53125, 1.5625, 1.59375, 1.625, 1.65625, 1.6875, 1.71875, 1.75, 1.78125, 1.8125, 1.84375,
		1.875, 1.90625, 1.9375, 1.96875, 2, 2.0625, 2.125, 2.1875, 2.25, 2.3125, 2.375, 2.4375, 2.5,
		2.5625, 2.625, 2.6875, 2.75, 2.8125, 2.875, 2.9375, 3, 3.0625, 3.125, 3.1875, 3.25, 3.3125,
		3.375, 3.4375, 3.5, 3.5625, 3.625, 3.6875, 3.75, 3.8125, 3.875, 3.9375, 4, 4.125, 4.25, 4.375,
		4.5, 4.625, 4.75, 4.875, 5, 5.125, 5.25, 5.375, 5.5, 5.625, 5.75, 5.875, 6, 6.125, 6.25, 6.375,
		6.5, 6.625, 6.75, 6.875, 7, 7.125, 7.25, 7.375, 7.5, 7.625, 7.75, 7.875,
	}
	fp8E3M4Values = []float64{
		-31, -30, -29, -28, -27, -26, -25, -24, -23, -22, -21, -20, -19, -18, -17, -16, -15.5, -15,
		-14.5, -14, -13.5, -13, -12.5, -12, -11.5, -11, -10.5, -10, -9.5, -9, -8.5, -8, -7.75, -7.5,
		-7.25, -7, -6.75, -6.5, -6.25, -6, -5.75, -5.5, -5.25, -5, -4.75, -4.5, -4.25, -4, -3.875, -3.75,
		-3.625, -3.5, -3.375, -3.25, -3.125, -3, -2.875, -2.75, -2.625, -2.5, -2.375, -2.25, -2.125, -2,
		-1.9375, -1.875, -1.8125, -1.75, -1.6875, -1.625, -1.5625, -1.5, -1.4375, -1.375, -1.3125, -1.25,
		-1.1875, -1.125, -1.0625, -1, -0.96875, -0.9375, -0.90625, -0.875, -0.84375, -0.8125, -0.78125,
		-0.75, -0.71875, -0.6875, -0.65625, -0.625, -0.59375, -0.5625, -0.53125, -0.5, -0.484375,
		-0.46875, -0.453125, -0.4375, -0.421875, -0.40625, -0.390625, -0.375, -0.359375, -0.34375,
		-0.328125, -0.3125, -0.296875, -0.28125, -0.265625, -0.25, -0.2421875, -0.234375, -0.2265625,
		-0.21875, -0.2109375, -0.203125, -0.1953125, -0.1875, -0.1796875, -0.171875, -0.1640625,
		-0.15625, -0.1484375, -0.140625, -0.1328125, 0, 0.1328125, 0.140625, 0.1484375, 0.15625,
		0.1640625, 0.171875, 0.1796875, 0.1875, 0.1953125, 0.203125, 0.2109375, 0.21875, 0.2265625,
		0.234375, 0.2421875, 0.25, 0.265625, 0.28125, 0.296875, 0.3125, 0.328125, 0.34375, 0.359375,
		0.375, 0.390625, 0.40625, 0.421875, 0.4375, 0.453125, 0.46875, 0.484375, 0.5, 0.53125, 0.5625,
		0.59375, 0.625, 0.65625, 0.6875, 0.71875, 0.75, 0.78125, 0.8125, 0.84375, 0.875, 0.90625, 0.9375,
		0.96875, 1, 1.0625, 1.125, 1.1875, 1.25, 1.3125, 1.375, 1.4375, 1.5, 1.5625, 1.625, 1.6875, 1.75,
		1.8125, 1.875, 1.9375, 2, 2.125, 2.25, 2.375, 2.5, 2.625, 2.75, 2.875, 3, 3.125, 3.25, 3.375,
		3.5, 3.625, 3.75, 3.875, 4, 4.25, 4.5, 4.75, 5, 5.25, 5.5, 5.75, 6, 6.25, 6.5, 6.75, 7, 7.25,
		7.5, 7.75, 8, 8.5, 9, 9.5, 10, 10.5, 11, 11.5, 12, 12.5, 13, 13.5, 14, 14.5, 15, 15.5, 16, 17,
		18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
	}
	fp8E4M3Values = []float64{
		-480, -448, -416, -384, -352, -320, -288, -256, -240, -224, -208, -192, -176, -160, -144, -128,
		-120, -112, -104, -96, -88, -80, -72, -64, -60, -56, -52, -48, -44, -40, -36, -32, -30, -28, -26,
		-24, -22, -20, -18, -16, -15, -14, -13, -12, -11, -10, -9, -8, -7.5, -7, -6.5, -6, -5.5, -5,
		-4.5, -4, -3.75, -3.5, -3.25, -3, -2.75, -2.5, -2.25, -2, -1.875, -1.75, -1.625, -1.5, -1.375,
		-1.25, -1.125, -1, -0.9375, -0.875, -0.8125, -0.75, -0.6875, -0.625, -0.5625, -0.5, -0.46875,
		-0.4375, -0.40625, -0.375, -0.34375, -0.3125, -0.28125, -0.25, -0.234375, -0.21875, -0.203125,
		-0.1875, -0.171875, -0.15625, -0.140625, -0.125, -0.1171875, -0.109375, -0.1015625, -0.09375,
		-0.0859375, -0.078125, -0.0703125, -0.0625, -0.05859375, -0.0546875, -0.05078125, -0.046875,
		-0.04296875, -0.0390625, -0.03515625, -0.03125, -0.029296875, -0.02734375, -0.025390625,
		-0.0234375, -0.021484375, -0.01953125, -0.017578125, -0.015625, -0.0146484375, -0.013671875,
		-0.0126953125, -0.01171875, -0.0107421875, -0.009765625, -0.0087890625, 0, 0.0087890625,
		0.009765625, 0.0107421875, 0.01171875, 0.0126953125, 0.013671875, 0.0146484375, 0.015625,
		0.017578125, 0.01953125, 0.021484375, 0.0234375, 0.025390625, 0.02734375, 0.029296875, 0.03125,
		0.03515625, 0.0390625, 0.04296875, 0.046875, 0.05078125, 0.0546875, 0.05859375, 0.0625,
		0.0703125, 0.078125, 0.0859375, 0.09375, 0.1015625, 0.109375, 0.1171875, 0.125, 0.140625,
		0.15625, 0.171875, 0.1875, 0.203125, 0.21875, 0.234375, 0.25, 0.28125, 0.3125, 0.34375, 0.375,
		0.40625, 0.4375, 0.46875, 0.5, 0.5625, 0.625, 0.6875, 0.75, 0.8125, 0.875, 0.9375, 1, 1.125,
		1.25, 1.375, 1.5, 1.625, 1.75, 1.875, 2, 2.25, 2.5, 2.75, 3, 3.25, 3.5, 3.75, 4, 4.5, 5, 5.5, 6,
		6.5, 7, 7.5, 8, 9, 10, 11, 12, 13, 14, 15, 16, 18, 20, 22, 24, 26, 28, 30, 32, 36, 40, 44, 48,
		52, 56, 60, 64, 72, 80, 88, 96, 104, 112, 120, 128, 144, 160, 176, 192, 208, 224, 240, 256, 288,
		320, 352, 384, 416, 448, 480,
	}
	fp8E5M2Values = []float64{
		-114688, -98304, -81920, -65536, -57344, -49152, -40960, -32768, -28672, -24576, -20480, -16384,
		-14336, -12288, -10240, -8192, -7168, -6144, -5120, -4096, -3584, -3072, -2560, -2048, -1792,
		-1536, -1280, -1024, -896, -768, -640, -512, -448, -384, -320, -256, -224, -192, -160, -128,
		-112, -96, -80, -64, -56, -48, -40, -32, -28, -24, -20, -16, -14, -12, -10, -8, -7, -6, -5, -4,
		-3.5, -3, -2.5, -2, -1.75, -1.5, -1.25, -1, -0.875, -0.75, -0.625, -0.5, -0.4375, -0.375,
		-0.3125, -0.25, -0.21875, -0.1875, -0.15625, -0.125, -0.109375, -0.09375, -0.078125, -0.0625,
		-0.0546875, -0.046875, -0.0390625, -0.03125, -0.02734375, -0.0234375, -0.01953125, -0.015625,
		-0.013671875, -0.01171875, -0.009765625, -0.0078125, -0.0068359375, -0.005859375, -0.0048828125,
		-0.00390625, -0.00341796875, -0.0029296875, -0.00244140625, -0.001953125, -0.001708984375,
		-0.00146484375, -0.001220703125, -0.0009765625, -0.0008544921875, -0.000732421875,
		-0.0006103515625, -0.00048828125, -0.00042724609375, -0.0003662109375, -0.00030517578125,
		-0.000244140625, -0.000213623046875, -0.00018310546875, -0.000152587890625, -0.0001220703125,
		-0.0001068115234375, -9.1552734375e-5, -7.62939453125e-5, -6.103515625e-5, -5.340576171875e-5,
		-4.57763671875e-5, -3.814697265625e-5, 0, 3.814697265625e-5, 4.57763671875e-5, 5.340576171875e-5,
		6.103515625e-5, 7.62939453125e-5, 9.1552734375e-5, 0.0001068115234375, 0.0001220703125,
		0.000152587890625, 0.00018310546875, 0.000213623046875, 0.000244140625, 0.00030517578125,
		0.0003662109375, 0.00042724609375, 0.00048828125, 0.0006103515625, 0.000732421875,
		0.0008544921875, 0.0009765625, 0.001220703125, 0.00146484375, 0.001708984375, 0.001953125,
		0.00244140625, 0.0029296875, 0.00341796875, 0.00390625, 0.0048828125, 0.005859375, 0.0068359375,
		0.0078125, 0.009765625, 0.01171875, 0.013671875, 0.015625, 0.01953125, 0.0234375, 0.02734375,
		0.03125, 0.0390625, 0.046875, 0.0546875, 0.0625, 0.078125, 0.09375, 0.109375, 0.125, 0.15625,
		0.1875, 0.21875, 0.25, 0.3125, 0.375, 0.4375, 0.5, 0.625, 0.75, 0.875, 1, 1.25, 1.5, 1.75, 2,
		2.5, 3, 3.5, 4, 5, 6, 7, 8, 10, 12, 14, 16, 20, 24, 28, 32, 40, 48, 56, 64, 80, 96, 112, 128,
		160, 192, 224, 256, 320, 384, 448, 512, 640, 768, 896, 1024, 1280, 1536, 1792, 2048, 2560, 3072,
		3584, 4096, 5120, 6144, 7168, 8192, 10240, 12288, 14336, 16384, 20480, 24576, 28672, 32768,
		40960, 49152, 57344, 65536, 81920, 98304, 114688,
	}
)

// int8Values is the symmetric 8-bit integer range -127..127.
var int8Values = func() []float64 {
	vals := make([]float64, 0, 255)
	for v := -127; v <= 127; v++ {
		vals = append(vals, float64(v))
	}
	return vals
}()
