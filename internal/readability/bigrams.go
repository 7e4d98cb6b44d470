package readability

// bigramWeights holds the relative frequency (in percent) of each letter pair in
// English text, after Rick Wicklin's bigram analysis. Pairs with a zero weight are
// omitted; lookups of missing pairs yield 0.
var bigramWeights = map[string]float64{
	"AA": 0.003, "AB": 0.23, "AC": 0.448, "AD": 0.368, "AE": 0.012, "AF": 0.074, "AG": 0.205,
	"AH": 0.014, "AI": 0.316, "AJ": 0.012, "AK": 0.105, "AL": 1.087, "AM": 0.285, "AN": 1.985,
	"AO": 0.005, "AP": 0.203, "AQ": 0.002, "AR": 1.075, "AS": 0.871, "AT": 1.487, "AU": 0.119,
	"AV": 0.205, "AW": 0.06, "AX": 0.019, "AY": 0.217, "AZ": 0.012,
	"BA": 0.146, "BB": 0.011, "BC": 0.002, "BD": 0.002, "BE": 0.576, "BH": 0.001, "BI": 0.107,
	"BJ": 0.023, "BL": 0.233, "BM": 0.003, "BN": 0.002, "BO": 0.195, "BP": 0.001, "BR": 0.112,
	"BS": 0.046, "BT": 0.017, "BU": 0.185, "BV": 0.004, "BY": 0.176,
	"CA": 0.538, "CB": 0.001, "CC": 0.083, "CD": 0.002, "CE": 0.651, "CF": 0.001, "CG": 0.001,
	"CH": 0.598, "CI": 0.281, "CK": 0.118, "CL": 0.149, "CM": 0.003, "CN": 0.001, "CO": 0.794,
	"CP": 0.001, "CQ": 0.005, "CR": 0.149, "CS": 0.023, "CT": 0.461, "CU": 0.163, "CY": 0.042,
	"CZ": 0.001,
	"DA": 0.151, "DB": 0.003, "DC": 0.003, "DD": 0.043, "DE": 0.765, "DF": 0.003, "DG": 0.031,
	"DH": 0.005, "DI": 0.493, "DJ": 0.005, "DL": 0.032, "DM": 0.018, "DN": 0.008, "DO": 0.188,
	"DP": 0.002, "DQ": 0.001, "DR": 0.085, "DS": 0.126, "DT": 0.003, "DU": 0.148, "DV": 0.019,
	"DW": 0.008, "DY": 0.05,
	"EA": 0.688, "EB": 0.027, "EC": 0.477, "ED": 1.168, "EE": 0.378, "EF": 0.163, "EG": 0.12,
	"EH": 0.026, "EI": 0.183, "EJ": 0.005, "EK": 0.016, "EL": 0.53, "EM": 0.374, "EN": 1.454,
	"EO": 0.073, "EP": 0.172, "EQ": 0.057, "ER": 2.048, "ES": 1.339, "ET": 0.413, "EU": 0.031,
	"EV": 0.255, "EW": 0.117, "EX": 0.214, "EY": 0.144, "EZ": 0.005,
	"FA": 0.164, "FC": 0.001, "FE": 0.237, "FF": 0.146, "FG": 0.001, "FI": 0.285, "FL": 0.065,
	"FM": 0.001, "FO": 0.488, "FR": 0.213, "FS": 0.006, "FT": 0.082, "FU": 0.096, "FY": 0.009,
	"GA": 0.148, "GD": 0.003, "GE": 0.385, "GF": 0.001, "GG": 0.025, "GH": 0.228, "GI": 0.152,
	"GL": 0.061, "GM": 0.01, "GN": 0.066, "GO": 0.132, "GR": 0.197, "GS": 0.051, "GT": 0.015,
	"GU": 0.086, "GW": 0.001, "GY": 0.026,
	"HA": 0.926, "HB": 0.004, "HC": 0.001, "HD": 0.003, "HE": 3.075, "HF": 0.002, "HH": 0.001,
	"HI": 0.763, "HL": 0.013, "HM": 0.013, "HN": 0.026, "HO": 0.485, "HP": 0.001, "HR": 0.084,
	"HS": 0.015, "HT": 0.13, "HU": 0.074, "HW": 0.005, "HY": 0.05,
	"IA": 0.286, "IB": 0.099, "IC": 0.699, "ID": 0.296, "IE": 0.385, "IF": 0.203, "IG": 0.255,
	"IH": 0.002, "II": 0.023, "IJ": 0.001, "IK": 0.043, "IL": 0.432, "IM": 0.318, "IN": 2.433,
	"IO": 0.835, "IP": 0.089, "IQ": 0.011, "IR": 0.315, "IS": 1.128, "IT": 1.123, "IU": 0.017,
	"IV": 0.288, "IW": 0.001, "IX": 0.022, "IZ": 0.064,
	"JA": 0.026, "JE": 0.052, "JI": 0.003, "JO": 0.054, "JU": 0.059,
	"KA": 0.017, "KB": 0.001, "KD": 0.001, "KE": 0.214, "KF": 0.002, "KG": 0.003, "KH": 0.003,
	"KI": 0.098, "KL": 0.011, "KM": 0.002, "KN": 0.051, "KO": 0.006, "KP": 0.001, "KR": 0.003,
	"KS": 0.048, "KT": 0.001, "KU": 0.003, "KW": 0.002, "KY": 0.006,
	"LA": 0.528, "LB": 0.007, "LC": 0.012, "LD": 0.253, "LE": 0.829, "LF": 0.053, "LG": 0.006,
	"LH": 0.002, "LI": 0.624, "LK": 0.02, "LL": 0.577, "LM": 0.023, "LN": 0.006, "LO": 0.387,
	"LP": 0.019, "LR": 0.01, "LS": 0.142, "LT": 0.124, "LU": 0.135, "LV": 0.035, "LW": 0.013,
	"LY": 0.425,
	"MA": 0.565, "MB": 0.09, "MC": 0.004, "MD": 0.001, "ME": 0.793, "MF": 0.004, "MG": 0.001,
	"MH": 0.001, "MI": 0.318, "ML": 0.005, "MM": 0.096, "MN": 0.009, "MO": 0.337, "MP": 0.239,
	"MR": 0.003, "MS": 0.093, "MT": 0.001, "MU": 0.115, "MW": 0.001, "MY": 0.062,
	"NA": 0.347, "NB": 0.004, "NC": 0.416, "ND": 1.352, "NE": 0.692, "NF": 0.067, "NG": 0.953,
	"NH": 0.011, "NI": 0.339, "NJ": 0.011, "NK": 0.052, "NL": 0.064, "NM": 0.028, "NN": 0.073,
	"NO": 0.465, "NP": 0.006, "NQ": 0.006, "NR": 0.009, "NS": 0.509, "NT": 1.041, "NU": 0.079,
	"NV": 0.052, "NW": 0.006, "NX": 0.003, "NY": 0.098, "NZ": 0.004,
	"OA": 0.057, "OB": 0.097, "OC": 0.166, "OD": 0.195, "OE": 0.039, "OF": 1.175, "OG": 0.094,
	"OH": 0.021, "OI": 0.088, "OJ": 0.007, "OK": 0.064, "OL": 0.365, "OM": 0.546, "ON": 1.758,
	"OO": 0.21, "OP": 0.224, "OQ": 0.001, "OR": 1.277, "OS": 0.29, "OT": 0.442, "OU": 0.87,
	"OV": 0.178, "OW": 0.33, "OX": 0.019, "OY": 0.036, "OZ": 0.003,
	"PA": 0.324, "PB": 0.001, "PC": 0.001, "PD": 0.001, "PE": 0.478, "PF": 0.001, "PH": 0.094,
	"PI": 0.123, "PK": 0.001, "PL": 0.263, "PM": 0.016, "PN": 0.001, "PO": 0.361, "PP": 0.137,
	"PR": 0.474, "PS": 0.055, "PT": 0.106, "PU": 0.105, "PW": 0.001, "PY": 0.012,
	"QU": 0.148,
	"RA": 0.686, "RB": 0.027, "RC": 0.121, "RD": 0.189, "RE": 1.854, "RF": 0.032, "RG": 0.1,
	"RH": 0.015, "RI": 0.728, "RJ": 0.001, "RK": 0.097, "RL": 0.086, "RM": 0.175, "RN": 0.16,
	"RO": 0.727, "RP": 0.042, "RQ": 0.001, "RR": 0.121, "RS": 0.397, "RT": 0.362, "RU": 0.128,
	"RV": 0.069, "RW": 0.013, "RX": 0.001, "RY": 0.248, "RZ": 0.001,
	"SA": 0.218, "SB": 0.008, "SC": 0.155, "SD": 0.005, "SE": 0.932, "SF": 0.017, "SG": 0.002,
	"SH": 0.315, "SI": 0.55, "SK": 0.039, "SL": 0.056, "SM": 0.065, "SN": 0.009, "SO": 0.398,
	"SP": 0.191, "SQ": 0.007, "SR": 0.006, "SS": 0.405, "ST": 1.053, "SU": 0.311, "SV": 0.001,
	"SW": 0.024, "SY": 0.057,
	"TA": 0.53, "TB": 0.003, "TC": 0.026, "TD": 0.001, "TE": 1.205, "TF": 0.006, "TG": 0.002,
	"TH": 3.556, "TI": 1.343, "TL": 0.098, "TM": 0.026, "TN": 0.01, "TO": 1.041, "TP": 0.004,
	"TR": 0.426, "TS": 0.337, "TT": 0.171, "TU": 0.255, "TV": 0.001, "TW": 0.082, "TY": 0.227,
	"TZ": 0.004,
	"UA": 0.136, "UB": 0.089, "UC": 0.188, "UD": 0.091, "UE": 0.147, "UF": 0.019, "UG": 0.128,
	"UH": 0.001, "UI": 0.101, "UJ": 0.001, "UK": 0.005, "UL": 0.346, "UM": 0.138, "UN": 0.394,
	"UO": 0.011, "UP": 0.136, "UR": 0.543, "US": 0.454, "UT": 0.405, "UU": 0.001, "UV": 0.003,
	"UX": 0.004, "UY": 0.005, "UZ": 0.002,
	"VA": 0.14, "VE": 0.825, "VI": 0.27, "VO": 0.071, "VR": 0.001, "VS": 0.001, "VU": 0.002,
	"VY": 0.005,
	"WA": 0.385, "WB": 0.001, "WC": 0.001, "WD": 0.004, "WE": 0.361, "WF": 0.002, "WH": 0.379,
	"WI": 0.374, "WK": 0.001, "WL": 0.015, "WM": 0.001, "WN": 0.079, "WO": 0.222, "WP": 0.001,
	"WR": 0.031, "WS": 0.035, "WT": 0.007, "WU": 0.001, "WY": 0.002,
	"XA": 0.03, "XC": 0.026, "XE": 0.022, "XF": 0.002, "XH": 0.004, "XI": 0.039, "XL": 0.001,
	"XO": 0.003, "XP": 0.067, "XT": 0.047, "XU": 0.005, "XV": 0.002, "XX": 0.003, "XY": 0.003,
	"YA": 0.016, "YB": 0.004, "YC": 0.014, "YD": 0.007, "YE": 0.093, "YF": 0.001, "YG": 0.003,
	"YH": 0.001, "YI": 0.029, "YL": 0.015, "YM": 0.024, "YN": 0.013, "YO": 0.15, "YP": 0.025,
	"YR": 0.008, "YS": 0.097, "YT": 0.017, "YU": 0.001, "YW": 0.003, "YZ": 0.002,
	"ZA": 0.025, "ZE": 0.05, "ZH": 0.001, "ZI": 0.012, "ZL": 0.001, "ZO": 0.007, "ZU": 0.002,
	"ZY": 0.002, "ZZ": 0.003,
}
